package filter

import (
	"bytes"
	"encoding/base64"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"net/textproto"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/mikey/phish-guard/internal/core"
)

// maxMultipartDepth stops runaway nesting of multipart bodies
const maxMultipartDepth = 5

var plainLinkPattern = regexp.MustCompile(`https?://[^\s<>"'()]+`)

// messageContent is the text and links a message carries
type messageContent struct {
	Text  string
	Links []string
}

type contentCollector struct {
	text  strings.Builder
	links []string
	seen  map[string]bool
}

func newContentCollector() *contentCollector {
	return &contentCollector{seen: make(map[string]bool)}
}

func (c *contentCollector) addText(s string) {
	s = strings.TrimSpace(s)
	if s == "" {
		return
	}
	if c.text.Len() > 0 {
		c.text.WriteString("\n")
	}
	c.text.WriteString(s)
}

func (c *contentCollector) addLink(link string) {
	link = strings.TrimRight(strings.TrimSpace(link), ".,;:!?")
	if link == "" || c.seen[link] {
		return
	}
	c.seen[link] = true
	c.links = append(c.links, link)
}

func (c *contentCollector) result() messageContent {
	return messageContent{Text: c.text.String(), Links: c.links}
}

// extractContent walks a message and collects the text of its text/plain
// and text/html parts together with the links they contain. Attachments
// are skipped, as are parts that fail to decode.
func extractContent(msg *mail.Message) messageContent {
	c := newContentCollector()
	c.walkPart(textproto.MIMEHeader(msg.Header), msg.Body, 0)
	return c.result()
}

func (c *contentCollector) walkPart(header textproto.MIMEHeader, body io.Reader, depth int) {
	mediaType, params, err := mime.ParseMediaType(header.Get("Content-Type"))
	if err != nil {
		// RFC 2045 default
		mediaType = "text/plain"
	}

	if strings.HasPrefix(mediaType, "multipart/") {
		boundary := params["boundary"]
		if boundary == "" || depth >= maxMultipartDepth {
			return
		}
		mr := multipart.NewReader(body, boundary)
		for {
			part, err := mr.NextPart()
			if err != nil {
				// io.EOF or a broken boundary; keep what was collected
				return
			}
			c.walkPart(part.Header, part, depth+1)
		}
	}

	if isAttachment(header) {
		return
	}

	switch mediaType {
	case "text/plain":
		data, err := io.ReadAll(decodeTransfer(header, body))
		if err != nil {
			return
		}
		text := string(data)
		c.addText(text)
		for _, link := range plainLinkPattern.FindAllString(text, -1) {
			c.addLink(link)
		}
	case "text/html":
		data, err := io.ReadAll(decodeTransfer(header, body))
		if err != nil {
			return
		}
		c.addHTML(data)
	}
}

func (c *contentCollector) addHTML(data []byte) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		c.addText(string(data))
		return
	}

	doc.Find("script, style, head").Remove()
	c.addText(strings.Join(strings.Fields(doc.Text()), " "))

	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		lower := strings.ToLower(href)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			c.addLink(href)
		}
	})
}

func isAttachment(header textproto.MIMEHeader) bool {
	disposition, _, err := mime.ParseMediaType(header.Get("Content-Disposition"))
	return err == nil && strings.EqualFold(disposition, "attachment")
}

func decodeTransfer(header textproto.MIMEHeader, body io.Reader) io.Reader {
	switch strings.ToLower(strings.TrimSpace(header.Get("Content-Transfer-Encoding"))) {
	case "base64":
		return base64.NewDecoder(base64.StdEncoding, body)
	case "quoted-printable":
		return quotedprintable.NewReader(body)
	default:
		return body
	}
}

// emailFromMessage builds the assessed view of a parsed message
func emailFromMessage(msg *mail.Message) *core.EmailSubject {
	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}

	content := extractContent(msg)
	return &core.EmailSubject{
		Subject: subject,
		Body:    content.Text,
		Links:   content.Links,
	}
}

// decodeEncodedHeader decodes RFC 2047 encoded words in a header value
func decodeEncodedHeader(value string) (string, error) {
	dec := new(mime.WordDecoder)
	return dec.DecodeHeader(value)
}
