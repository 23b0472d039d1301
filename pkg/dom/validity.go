package dom

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Browser-style constraint messages.
const (
	MessageValueMissing  = "Please fill out this field."
	MessageCheckMissing  = "Please check this box if you want to proceed."
	MessageTypeURL       = "Please enter a URL."
	MessageTypeDate      = "Please enter a valid date."
	MessageTypeNumber    = "Please enter a number."
	MessagePatternFailed = "Please match the requested format."
)

// DateLayout is the value format of date inputs.
const DateLayout = "2006-01-02"

// Validity evaluates the element's native constraints (required, type,
// pattern, maxlength) plus any custom validity message. It returns whether the
// value satisfies them and, when not, the validation message.
func (e *Element) Validity() (bool, string) {
	if e.customValidity != "" {
		return false, e.customValidity
	}

	inputType := strings.ToLower(e.Attr("type"))
	if inputType == "checkbox" {
		if e.HasAttr("required") && !e.Checked {
			return false, MessageCheckMissing
		}
		return true, ""
	}

	value := e.Value
	if strings.TrimSpace(value) == "" {
		if e.HasAttr("required") {
			return false, MessageValueMissing
		}
		return true, ""
	}

	switch inputType {
	case "url":
		parsed, err := url.ParseRequestURI(value)
		if err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return false, MessageTypeURL
		}
	case "date":
		if _, err := time.Parse(DateLayout, value); err != nil {
			return false, MessageTypeDate
		}
	case "number":
		if _, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err != nil {
			return false, MessageTypeNumber
		}
	}

	if pattern := e.Attr("pattern"); pattern != "" {
		re, err := regexp.Compile("^(?:" + pattern + ")$")
		if err == nil && !re.MatchString(value) {
			return false, MessagePatternFailed
		}
	}

	if raw := e.Attr("maxlength"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit >= 0 && utf8.RuneCountInString(value) > limit {
			return false, fmt.Sprintf("Please shorten this text to %d characters or less.", limit)
		}
	}

	return true, ""
}
