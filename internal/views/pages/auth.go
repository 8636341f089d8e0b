package pages

const (
	loginTitle  = "Sign in · Mise"
	signupTitle = "Create your kitchen · Mise"
)

// SignupForm carries the values echoed back into the signup form.
type SignupForm struct {
	Message     string
	Name        string
	Email       string
	KitchenName string
}
