package rewrite

import "regexp"

var (
	baseTagPattern  = regexp.MustCompile(`(?i)<base\s[^>]*>`)
	headOpenPattern = regexp.MustCompile(`(?i)<head\b[^>]*>`)

	cspMetaPattern       = regexp.MustCompile(`(?i)<meta\b[^>]*http-equiv\s*=\s*["']?content-security-policy["']?[^>]*>`)
	linkIntegrityPattern = regexp.MustCompile(`(?i)(<link\b[^>]*?)\s+integrity\s*=\s*("[^"]*"|'[^']*')`)
	integrityAttrPattern = regexp.MustCompile(`(?i)\s+integrity\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)
	nonceAttrPattern     = regexp.MustCompile(`(?i)\s+nonce\s*=\s*("[^"]*"|'[^']*'|[^\s>]+)`)

	swRegisterPattern = regexp.MustCompile(`(?i)navigator\.serviceWorker\.register\s*\(`)
)

// normalizeBaseTag replaces the first existing <base> tag with one pointing
// at the document's final URL, or injects one right after the opening <head>
// tag. Documents without a <head> get the tag prepended as a fallback.
// Running the pass twice replaces rather than duplicates.
func (rw *Rewriter) normalizeBaseTag(doc string) string {
	tag := `<base href="` + attrEscape(rw.base) + `" target="_blank">`

	if baseTagPattern.MatchString(doc) {
		replaced := false
		return baseTagPattern.ReplaceAllStringFunc(doc, func(m string) string {
			if replaced {
				return m
			}
			replaced = true
			return tag
		})
	}

	if loc := headOpenPattern.FindStringIndex(doc); loc != nil {
		return doc[:loc[1]] + tag + doc[loc[1]:]
	}

	return tag + doc
}

// stripSecurityMarkup removes CSP meta tags and integrity/nonce attributes.
// The rewritten page necessarily differs from what the target served, so CSP
// and subresource-integrity checks would block every rewritten resource.
func (rw *Rewriter) stripSecurityMarkup(doc string) string {
	doc = cspMetaPattern.ReplaceAllString(doc, "")
	// Link tags first: their integrity values can sit next to crossorigin
	// attributes that confuse the generic unquoted form.
	doc = linkIntegrityPattern.ReplaceAllString(doc, "$1")
	doc = integrityAttrPattern.ReplaceAllString(doc, "")
	doc = nonceAttrPattern.ReplaceAllString(doc, "")
	return doc
}

// neutralizeServiceWorkers rewrites service-worker registration calls into a
// console.log call. A real registration would intercept future fetches
// outside the proxy's control. Chained .then() handlers on the original call
// will not run; that is an accepted edge of the text-based approach.
func (rw *Rewriter) neutralizeServiceWorkers(doc string) string {
	return swRegisterPattern.ReplaceAllString(doc, `console.log('service worker registration disabled',`)
}
