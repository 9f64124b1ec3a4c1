package inference

import (
	"os"
	"runtime"

	"github.com/pkg/errors"
	ort "github.com/yalue/onnxruntime_go"
)

// DefaultLibraryPath returns the conventional location of the ONNX Runtime
// shared library for the current platform.
func DefaultLibraryPath() string {
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll"
	case "darwin":
		return "./third_party/libonnxruntime.dylib"
	default:
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so"
		}
		return "./third_party/onnxruntime.so"
	}
}

// InitRuntime loads the ONNX Runtime shared library and initializes the
// process-wide environment. It does nothing when the environment is already
// initialized.
//
// Arguments:
// - libraryPath: The shared library. Empty uses DefaultLibraryPath.
//
// Returns:
// - error if the library is missing or fails to initialize.
//
// @example
//
//	if err := inference.InitRuntime(""); err != nil {
//	    return err
//	}
//
// defer inference.ShutdownRuntime()
func InitRuntime(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	if libraryPath == "" {
		libraryPath = DefaultLibraryPath()
	}
	if _, err := os.Stat(libraryPath); err != nil {
		return errors.Wrapf(err, "ONNX Runtime library not found at %s", libraryPath)
	}

	ort.SetSharedLibraryPath(libraryPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return errors.Wrap(err, "error initializing ORT environment")
	}
	return nil
}

// ShutdownRuntime releases the environment created by InitRuntime.
func ShutdownRuntime() error {
	if !ort.IsInitialized() {
		return nil
	}
	return errors.Wrap(ort.DestroyEnvironment(), "error destroying ORT environment")
}
