package auth

// Credentials is accepted both as a JSON body and as a classic form
// post, so the static pages can submit without any JS.
type Credentials struct {
	Username string `json:"username" form:"username" binding:"required,min=1,max=64" validate:"required,min=1,max=64"`
	Password string `json:"password" form:"password" binding:"required,min=1,max=128" validate:"required,min=1,max=128"`
}
