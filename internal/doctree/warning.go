package doctree

import "fmt"

// AmbiguousSpanWarning records a span that could only be resolved coarsely.
// It never aborts a conversion.
type AmbiguousSpanWarning struct {
	Title  string
	Page   int
	Reason string
}

const (
	ReasonHeadingNotFound = "heading not found on page, whole-page boundary used"
	ReasonSharedPage      = "next heading on the same page not found, span extended to the page end"
	ReasonPageClamped     = "declared page outside the document body, clamped"
	ReasonSuspectPage     = "declared page out of order, content left empty"
	ReasonOffsetNotFound  = "first heading not found in body, front-matter offset assumed 0"
	ReasonOffsetAmbiguous = "first heading found on several pages, front-matter offset assumed 0"
)

func (w AmbiguousSpanWarning) Error() string {
	return fmt.Sprintf("ambiguous span for %q (page %d): %s", w.Title, w.Page, w.Reason)
}

func (w AmbiguousSpanWarning) String() string { return w.Error() }
