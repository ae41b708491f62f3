package payment

import "fmt"

const confirmationSubject = "Your Premium Access Code"

// confirmationBody is the plain-text purchase confirmation mail with
// the redemption code inlined.
func confirmationBody(code string) string {
	return fmt.Sprintf("Hi,\n\n"+
		"Thank you for subscribing to Premium.\n\n"+
		"Your personal Premium Access Code is:\n\n"+
		"    %s\n\n"+
		"Paste this code into the app to unlock unlimited access.\n", code)
}
