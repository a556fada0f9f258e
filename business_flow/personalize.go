package businessflow

import (
	"strings"

	"github.com/velora/backoffice/models"
)

// Placeholder tokens recognized by Personalize. No other template syntax is
// supported; unknown tokens pass through untouched.
const (
	placeholderName      = "{{name}}"
	placeholderFirstName = "{{firstName}}"
	placeholderEmail     = "{{email}}"
	placeholderPhone     = "{{phone}}"
	placeholderCity      = "{{city}}"
	placeholderState     = "{{state}}"
)

// PersonalizationVariables computes the replacement values for one client.
// Missing names fall back to generic salutations; missing contact and
// location fields fall back to empty strings.
func PersonalizationVariables(client *models.Client) map[string]string {
	name := "Valued Customer"
	if client.Name != "" {
		name = client.Name
	}

	firstName := "Customer"
	if client.FirstName != nil && *client.FirstName != "" {
		firstName = *client.FirstName
	} else if client.ContactPerson != nil && *client.ContactPerson != "" {
		firstName = *client.ContactPerson
	}

	return map[string]string{
		"name":      name,
		"firstName": firstName,
		"email":     strings.TrimSpace(derefOrEmpty(client.Email)),
		"phone":     strings.TrimSpace(derefOrEmpty(client.Phone)),
		"city":      derefOrEmpty(client.City),
		"state":     derefOrEmpty(client.State),
	}
}

// Personalize renders a content template for one client. Every occurrence of
// each placeholder is replaced.
func Personalize(template string, client *models.Client) string {
	vars := PersonalizationVariables(client)

	out := template
	out = strings.ReplaceAll(out, placeholderName, vars["name"])
	out = strings.ReplaceAll(out, placeholderFirstName, vars["firstName"])
	out = strings.ReplaceAll(out, placeholderEmail, vars["email"])
	out = strings.ReplaceAll(out, placeholderPhone, vars["phone"])
	out = strings.ReplaceAll(out, placeholderCity, vars["city"])
	out = strings.ReplaceAll(out, placeholderState, vars["state"])
	return out
}

func derefOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
