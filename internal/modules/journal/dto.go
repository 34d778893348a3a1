package journal

// EntryForm carries the multipart fields of add_entry/edit_entry. The
// image file part is handled separately by the handler. Rating is only
// meaningful for review-style deployments; its range is not enforced.
type EntryForm struct {
	Title  string `form:"title" binding:"required,max=200" validate:"required,max=200"`
	Body   string `form:"body" binding:"required" validate:"required"`
	Rating *int   `form:"rating"`
}
