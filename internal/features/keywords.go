package features

// Keyword lists are matched as case-insensitive substrings.
var (
	// URLRiskWords flag a URL itself
	URLRiskWords = []string{"login", "verify", "update", "bank", "secure", "account"}

	// PageSuspiciousWords are looked up in the visible page text
	PageSuspiciousWords = []string{"urgent", "verify", "suspend", "limited time", "click now"}

	// UrgentWords signal pressure tactics in an email
	UrgentWords = []string{"urgent", "immediately", "asap", "action required", "verify", "now"}

	// EmailSuspiciousWords are credential and account related terms
	EmailSuspiciousWords = []string{"bank", "password", "account", "login", "update", "security"}

	// AttachmentWords hint at a malicious attachment lure
	AttachmentWords = []string{"invoice", "attachment", "pdf", "document", "file"}
)
