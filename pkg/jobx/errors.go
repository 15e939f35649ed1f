package jobx

import "github.com/Abraxas-365/academy/pkg/errx"

var ErrRegistry = errx.NewRegistry("JOBX")

var (
	CodeNotFound        = ErrRegistry.Register("NOT_FOUND", errx.TypeNotFound, 404, "Task not found")
	CodeInvalidTask     = ErrRegistry.Register("INVALID_TASK", errx.TypeValidation, 400, "Invalid task definition")
	CodeBackendFailure  = ErrRegistry.Register("BACKEND_FAILURE", errx.TypeExternal, 500, "Queue backend operation failed")
	CodeAlreadyRunning  = ErrRegistry.Register("ALREADY_RUNNING", errx.TypeConflict, 409, "Runner is already running")
	CodeShutdownTimeout = ErrRegistry.Register("SHUTDOWN_TIMEOUT", errx.TypeInternal, 500, "Worker drain timed out")
)
