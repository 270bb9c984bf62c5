package source

// CandidateItem is one source entry, produced by the reader and consumed
// within a single run.
type CandidateItem struct {
	Link       string
	Title      string
	RawContent string
}

// ReadInfo reports how a read advanced through the source.
type ReadInfo struct {
	Attempted int  // batch size actually attempted; url_list bookmarks advance by this
	NewOffset int  // updated bookmark (url_list only)
	Exhausted bool // url_list offset is at or past the end of the list
}
