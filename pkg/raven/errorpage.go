package raven

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// extractServerError pulls the first server-reported error message out
// of a sign-in response body. Raven renders rejections (bad password,
// unknown user) inside <span class="error"> on the returned page.
func extractServerError(body io.Reader) (string, bool) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return "", false
	}

	sel := doc.Find("span.error").First()
	if sel.Length() == 0 {
		return "", false
	}

	msg := strings.TrimSpace(sel.Text())
	return msg, msg != ""
}
