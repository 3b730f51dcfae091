package serviceerror

import "regexp"

// Rule maps one known upstream phrasing to a canonical error. Message, when
// set, replaces the builder's default message.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Build   Builder
	Message string
}

func (r Rule) matches(raw string) bool {
	return r.Pattern.MatchString(raw)
}

func (r Rule) build() *ServiceError {
	return r.Build(r.Message)
}

// Rules is evaluated top to bottom; the first match wins. Patterns are kept
// specific enough that no real upstream message matches two of them.
var Rules = []Rule{
	{
		Name:    "missing-scope",
		Pattern: regexp.MustCompile(`User \(.*\) missing scope \(.*\)`),
		Build:   Unauthorised,
	},
	{
		Name:    "not-authorized",
		Pattern: regexp.MustCompile(`The current user is not authorized to perform the requested action\.`),
		Build:   PermissionDenied,
	},
	{
		Name:    "user-already-exists",
		Pattern: regexp.MustCompile(`A user with the same id, email, or phone already exists in this project\.`),
		Build:   UserAlreadyExists,
	},
	{
		Name:    "document-already-exists",
		Pattern: regexp.MustCompile(`Document with the requested ID already exists\.`),
		Build:   Conflict,
		Message: "Document already exists",
	},
	{
		Name:    "user-not-found",
		Pattern: regexp.MustCompile(`User with the requested ID could not be found\.`),
		Build:   UserNotFound,
	},
	{
		Name:    "document-not-found",
		Pattern: regexp.MustCompile(`Document with the requested ID could not be found\.`),
		Build:   DocumentNotFound,
	},
	{
		Name:    "invalid-credentials",
		Pattern: regexp.MustCompile(`Invalid credentials\. Please check the email and password\.`),
		Build:   InvalidCredentials,
	},
	{
		Name:    "join-not-waiting",
		Pattern: regexp.MustCompile(`Cannot join game not waiting for players state`),
		Build:   BadRequest,
		Message: "Cannot join game not waiting for players state",
	},
	{
		Name:    "player-already-in-game",
		Pattern: regexp.MustCompile(`Player already in game`),
		Build:   BadRequest,
		Message: "Player already in game",
	},
	{
		Name:    "game-full",
		Pattern: regexp.MustCompile(`Game already has 2 players`),
		Build:   Conflict,
		Message: "Game already has 2 players",
	},
	{
		Name:    "quit-finished-game",
		Pattern: regexp.MustCompile(`Cannot quit game in finished state`),
		Build:   BadRequest,
		Message: "Cannot quit game in finished state",
	},
	{
		Name:    "player-not-in-game",
		Pattern: regexp.MustCompile(`Player is not part of the game`),
		Build:   PermissionDenied,
		Message: "Player is not part of the game",
	},
}

// Classify maps a raw upstream failure message to exactly one ServiceError.
// Unmatched messages become an InternalServerError whose client-facing
// message never includes the raw text.
func Classify(raw string) *ServiceError {
	if rule, ok := Match(raw); ok {
		return rule.build()
	}
	return InternalServerError()
}

// Match returns the first rule matching raw.
func Match(raw string) (Rule, bool) {
	for _, rule := range Rules {
		if rule.matches(raw) {
			return rule, true
		}
	}
	return Rule{}, false
}
