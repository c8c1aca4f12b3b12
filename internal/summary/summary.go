// Package summary turns a completed inspection into a short written report
// through an external language model.
package summary

import (
	"context"
	"fmt"
	"strings"

	"github.com/vbonduro/housecheck/internal/domain"
)

// Prompt introduces the checklist dump sent to the model.
const Prompt = `You are assisting a property manager. Summarise the inspection below for the
property owner in at most five sentences. Mention every unchecked required item and
any notes that suggest damage, leaks, pests or security problems. Do not invent
findings that are not in the checklist.`

type Summarizer interface {
	Summarize(ctx context.Context, tpl *domain.Template, sess *domain.Session) (string, error)
}

// BuildPrompt renders the session's checklist in template order.
func BuildPrompt(tpl *domain.Template, sess *domain.Session) string {
	var b strings.Builder
	b.WriteString(Prompt)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "Inspection: %s (property %s)\n", tpl.Name, sess.PropertyID)
	if sess.DurationSeconds != nil {
		fmt.Fprintf(&b, "Duration: %d minutes\n", *sess.DurationSeconds/60)
	}

	for _, sec := range tpl.Sections {
		fmt.Fprintf(&b, "\n## %s\n", sec.Name)
		for _, item := range sec.Items {
			st := sess.Items[item.ID]
			mark := " "
			if st.Completed {
				mark = "x"
			}
			req := ""
			if item.Required {
				req = " (required)"
			}
			fmt.Fprintf(&b, "- [%s] %s%s", mark, item.Label, req)
			if n := len(st.PhotoRefs); n > 0 {
				fmt.Fprintf(&b, " [%d photo(s)]", n)
			}
			if notes := strings.TrimSpace(st.Notes); notes != "" {
				fmt.Fprintf(&b, ": %s", notes)
			}
			b.WriteString("\n")
		}
	}

	if notes := strings.TrimSpace(sess.GeneralNotes); notes != "" {
		fmt.Fprintf(&b, "\nGeneral notes: %s\n", notes)
	}
	return b.String()
}
