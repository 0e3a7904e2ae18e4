package output

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	walleterr "github.com/mrz1836/kaswallet/pkg/errors"
)

// ErrorOutput is the JSON shape of a failed command.
type ErrorOutput struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes the failure.
type ErrorDetail struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Details    map[string]string `json:"details,omitempty"`
	Suggestion string            `json:"suggestion,omitempty"`
	ExitCode   int               `json:"exit_code"`
}

func detail(err error) ErrorDetail {
	var we *walleterr.WalletError
	if errors.As(err, &we) {
		msg := we.Message
		if we.Cause != nil {
			msg = fmt.Sprintf("%s: %v", msg, we.Cause)
		}
		return ErrorDetail{
			Code:       we.Code,
			Message:    msg,
			Details:    we.Details,
			Suggestion: we.Suggestion,
			ExitCode:   we.ExitCode,
		}
	}
	return ErrorDetail{Code: "GENERAL_ERROR", Message: err.Error(), ExitCode: walleterr.ExitGeneral}
}

// FormatError writes err in the given format.
func FormatError(w io.Writer, err error, format Format) error {
	if err == nil {
		return nil
	}
	d := detail(err)
	if format == FormatJSON {
		return writeJSON(w, ErrorOutput{Error: d})
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Error: %s\n", d.Message)
	if len(d.Details) > 0 {
		keys := make([]string, 0, len(d.Details))
		for k := range d.Details {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString("\nDetails:\n")
		for _, k := range keys {
			fmt.Fprintf(&sb, "  %s: %s\n", k, d.Details[k])
		}
	}
	if d.Suggestion != "" {
		fmt.Fprintf(&sb, "\nSuggestion: %s\n", d.Suggestion)
	}
	_, err = io.WriteString(w, sb.String())
	return err
}
