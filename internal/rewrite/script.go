package rewrite

import (
	"regexp"
	"strings"
)

var scriptBlockPattern = regexp.MustCompile(`(?is)(<script\b[^>]*>)(.+?)(</script\s*>)`)

// scriptURLPatterns match common dynamic-fetch idioms in inline scripts. Each
// pattern captures the URL string literal in its last two groups
// (double-quoted, single-quoted), which is the contract rewriteJSLiteral
// relies on.
var scriptURLPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\bfetch\(\s*(?:"([^"]*)"|'([^']*)')`),
	regexp.MustCompile(`(?i)\.open\(\s*(?:"(?:GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)"|'(?:GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)')\s*,\s*(?:"([^"]*)"|'([^']*)')`),
	regexp.MustCompile(`(?i)\b(?:window\.|document\.)?location(?:\.href)?\s*=\s*(?:"([^"]*)"|'([^']*)')`),
	regexp.MustCompile(`(?i)\bwindow\.open\(\s*(?:"([^"]*)"|'([^']*)')`),
	regexp.MustCompile(`(?i)\.setAttribute\(\s*(?:"(?:src|href)"|'(?:src|href)')\s*,\s*(?:"([^"]*)"|'([^']*)')`),
}

// moduleImportPattern matches the module-specifier literal of a static
// "import ... from" statement.
var moduleImportPattern = regexp.MustCompile(`\bimport\b[^'";]*?\bfrom\s*(?:"([^"]*)"|'([^']*)')`)

// jsEscaper escapes a value for substitution into a JS string literal.
var jsEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `'`, `\'`, "`", "\\`")

// rewriteScripts applies the dynamic-URL and module-import passes to every
// inline <script> body. Bodies of external scripts are empty and untouched.
func (rw *Rewriter) rewriteScripts(doc string) string {
	return replaceSubmatches(scriptBlockPattern, doc, func(m match) string {
		body := m.group(2)
		for _, re := range scriptURLPatterns {
			body = replaceSubmatches(re, body, rw.rewriteJSLiteral)
		}
		body = replaceSubmatches(moduleImportPattern, body, rw.rewriteJSLiteral)
		return m.group(1) + body + m.group(3)
	})
}

// rewriteJSLiteral rewrites the URL string literal captured by the last two
// groups of a script pattern, leaving the surrounding idiom intact.
func (rw *Rewriter) rewriteJSLiteral(m match) string {
	whole := m.group(0)
	n := m.groupCount()
	val, quote := quotedValue(m, n-1)
	if rw.shouldSkipScriptURL(val) {
		return whole
	}

	abs := rw.res.Resolve(val, rw.base)
	replacement := quote + jsEscaper.Replace(rw.proxied(abs)) + quote

	lit := quote + val + quote
	i := strings.LastIndex(whole, lit)
	if i < 0 {
		return whole
	}
	return whole[:i] + replacement + whole[i+len(lit):]
}

// shouldSkipScriptURL extends the shared skip rules with guards against JS
// expressions: template placeholders and interpolation markers mean the
// literal is not a plain URL and must not be touched.
func (rw *Rewriter) shouldSkipScriptURL(val string) bool {
	if rw.shouldSkip(val) {
		return true
	}
	return strings.Contains(val, "${") || strings.Contains(val, "{{") || strings.Contains(val, "}}")
}
