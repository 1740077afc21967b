// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyForbidden              = "auth.forbidden"
	KeyUserNotFound           = "user.not_found"

	// Catalog
	KeyProductNotFound  = "product.not_found"
	KeyCategoryNotFound = "category.not_found"
	KeyResourceNotFound = "resource.not_found"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// System
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"
	KeyRouteNotFound = "error.route_not_found"
)
