package cudainterpose

// CUDA Driver API result codes the interpose library must be able to name
// without a round trip to the daemon -- cuGetErrorString/cuGetErrorName are
// answered purely client-side, since the error code space is a fixed part
// of the CUDA ABI, not server state.
const (
	Success                 = 0
	ErrorInvalidValue       = 1
	ErrorOutOfMemory        = 2
	ErrorNotInitialized     = 3
	ErrorDeinitialized      = 4
	ErrorNoDevice           = 100
	ErrorInvalidDevice      = 101
	ErrorInvalidImage       = 200
	ErrorInvalidContext     = 201
	ErrorNoBinaryForGpu     = 209
	ErrorInvalidSource      = 300
	ErrorFileNotFound       = 301
	ErrorInvalidHandle      = 400
	ErrorIllegalState       = 401
	ErrorNotFound           = 500
	ErrorNotReady           = 600
	ErrorIllegalAddress     = 700
	ErrorLaunchOutOfRes     = 701
	ErrorLaunchTimeout      = 702
	ErrorLaunchFailed       = 719
	ErrorNotPermitted       = 800
	ErrorNotSupported       = 801
	ErrorUnknown            = 999
)

var errorNames = map[int32]string{
	Success:             "CUDA_SUCCESS",
	ErrorInvalidValue:   "CUDA_ERROR_INVALID_VALUE",
	ErrorOutOfMemory:    "CUDA_ERROR_OUT_OF_MEMORY",
	ErrorNotInitialized: "CUDA_ERROR_NOT_INITIALIZED",
	ErrorDeinitialized:  "CUDA_ERROR_DEINITIALIZED",
	ErrorNoDevice:       "CUDA_ERROR_NO_DEVICE",
	ErrorInvalidDevice:  "CUDA_ERROR_INVALID_DEVICE",
	ErrorInvalidImage:   "CUDA_ERROR_INVALID_IMAGE",
	ErrorInvalidContext: "CUDA_ERROR_INVALID_CONTEXT",
	ErrorNoBinaryForGpu: "CUDA_ERROR_NO_BINARY_FOR_GPU",
	ErrorInvalidSource:  "CUDA_ERROR_INVALID_SOURCE",
	ErrorFileNotFound:   "CUDA_ERROR_FILE_NOT_FOUND",
	ErrorInvalidHandle:  "CUDA_ERROR_INVALID_HANDLE",
	ErrorIllegalState:   "CUDA_ERROR_ILLEGAL_STATE",
	ErrorNotFound:       "CUDA_ERROR_NOT_FOUND",
	ErrorNotReady:       "CUDA_ERROR_NOT_READY",
	ErrorIllegalAddress: "CUDA_ERROR_ILLEGAL_ADDRESS",
	ErrorLaunchOutOfRes: "CUDA_ERROR_LAUNCH_OUT_OF_RESOURCES",
	ErrorLaunchTimeout:  "CUDA_ERROR_LAUNCH_TIMEOUT",
	ErrorLaunchFailed:   "CUDA_ERROR_LAUNCH_FAILED",
	ErrorNotPermitted:   "CUDA_ERROR_NOT_PERMITTED",
	ErrorNotSupported:   "CUDA_ERROR_NOT_SUPPORTED",
	ErrorUnknown:        "CUDA_ERROR_UNKNOWN",
}

var errorStrings = map[int32]string{
	Success:             "no error",
	ErrorInvalidValue:   "invalid argument",
	ErrorOutOfMemory:    "out of memory",
	ErrorNotInitialized: "driver not initialized",
	ErrorDeinitialized:  "driver deinitialized",
	ErrorNoDevice:       "no CUDA-capable device is detected",
	ErrorInvalidDevice:  "invalid device ordinal",
	ErrorInvalidImage:   "device kernel image is invalid",
	ErrorInvalidContext: "invalid context",
	ErrorNoBinaryForGpu: "no kernel image is available for execution on the device",
	ErrorInvalidSource:  "invalid source",
	ErrorFileNotFound:   "file not found",
	ErrorInvalidHandle:  "invalid resource handle",
	ErrorIllegalState:   "an illegal state was encountered",
	ErrorNotFound:       "named symbol not found",
	ErrorNotReady:       "not ready",
	ErrorIllegalAddress: "an illegal memory access was encountered",
	ErrorLaunchOutOfRes: "too many resources requested for launch",
	ErrorLaunchTimeout:  "the launch timed out and was terminated",
	ErrorLaunchFailed:   "unspecified launch failure",
	ErrorNotPermitted:   "operation not permitted",
	ErrorNotSupported:   "operation not supported",
	ErrorUnknown:        "unknown error",
}

// ErrorName returns the CUDA_ERROR_* symbolic name for a result code, the
// way cuGetErrorName does, falling back to CUDA_ERROR_UNKNOWN for codes
// outside the table -- the real driver's superset of less common codes
// is not worth enumerating for a virtualization layer that never itself
// produces them.
func ErrorName(code int32) string {
	if name, ok := errorNames[code]; ok {
		return name
	}
	return errorNames[ErrorUnknown]
}

// ErrorString returns the human-readable description for a result code,
// the way cuGetErrorString does.
func ErrorString(code int32) string {
	if s, ok := errorStrings[code]; ok {
		return s
	}
	return errorStrings[ErrorUnknown]
}
