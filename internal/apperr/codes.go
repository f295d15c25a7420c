package apperr

// Sentinels shared by the service, policy and notify packages.
var (
	ErrUnauthorized       = Unauthorized("UNAUTHORIZED", "Unauthorized")
	ErrInvalidCredentials = Unauthorized("INVALID_CREDENTIALS", "Invalid email or password")
	ErrAdminRequired      = Forbidden("ADMIN_REQUIRED", "Access forbidden. Admin privileges required.")
	ErrNotAssigned        = Forbidden("NOT_ASSIGNED", "Access forbidden. Project not assigned to user.")

	ErrProjectNotFound    = NotFound("PROJECT_NOT_FOUND", "Project not found")
	ErrClientNotFound     = NotFound("CLIENT_NOT_FOUND", "Client not found")
	ErrTechnicianNotFound = NotFound("TECHNICIAN_NOT_FOUND", "Technician not found")
	ErrNoProjectsFound    = NotFound("NO_PROJECTS_FOUND", "No projects found")

	ErrValidation        = Validation("VALIDATION_ERROR", "Validation error. Please check your input.")
	ErrInvalidDateFormat = Validation("INVALID_DATE_FORMAT", "Invalid date format.")
	ErrInvalidStatus     = Validation("INVALID_STATUS", "Invalid status value for the user role.")
	ErrInvalidUserIDs    = Validation("INVALID_USER_IDS", "Invalid user ID(s)")
	ErrEmailInUse        = Validation("EMAIL_IN_USE", "Email is already in use")
	ErrProjectNoClient   = Validation("PROJECT_WITHOUT_CLIENT", "Project has no client email")

	ErrTechnicianHasOpenProject = Conflict("TECHNICIAN_HAS_OPEN_PROJECT",
		"Technician has open projects. Close them before assigning new projects.")
)
