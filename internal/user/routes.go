package user

import "github.com/eduAbreu/train-book/internal/auth"

// RouteFor tells the client where to send a user after login. Owners who
// have not created a gym and students who have not joined one land on
// their onboarding flow.
func RouteFor(role string, onboardingDone bool) string {
	if role == auth.RoleOwner {
		if !onboardingDone {
			return "/onboarding/gym"
		}
		return "/owner/dashboard"
	}
	if !onboardingDone {
		return "/onboarding/join"
	}
	return "/dashboard"
}
