package notify

import (
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render substitutes {token} placeholders in template with values from
// vars and reports tokens that had no value.
//
// In lenient mode unknown tokens stay verbatim so templates degrade
// gracefully. In strict mode any missing token returns the template
// unsubstituted; the caller decides whether that is a warning or an error.
func Render(template string, vars map[string]string, strict bool) (string, []string) {
	var missing []string
	seen := make(map[string]bool)
	for _, match := range tokenPattern.FindAllStringSubmatch(template, -1) {
		key := match[1]
		if _, ok := vars[key]; !ok && !seen[key] {
			seen[key] = true
			missing = append(missing, key)
		}
	}

	if strict && len(missing) > 0 {
		return template, missing
	}

	rendered := template
	for key, value := range vars {
		rendered = strings.ReplaceAll(rendered, "{"+key+"}", value)
	}

	return rendered, missing
}
