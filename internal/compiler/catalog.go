package compiler

import (
	"cmp"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"posy/internal/recipe"
)

// Load error codes - unified across catalog loading.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
)

// LoadError represents an error that occurred during catalog loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CompileCatalog loads the CUE package in dir and compiles it into a
// catalog. All diagnostics are collected rather than stopping at the
// first, so one pass reports every broken design. The returned catalog
// is nil whenever any error is returned.
func CompileCatalog(dir string) (*recipe.Catalog, []error) {
	// Verify directory exists
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("catalog directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing catalog directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	// Find CUE files
	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	// Load CUE instances
	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}

	// Check for load errors
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	// Build value from instance
	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	return CompileCatalogValue(value)
}

// CompileCatalogValue compiles every design under the top-level "design"
// field of an already-built CUE value. Used directly by tests and by
// CompileCatalog after directory loading.
func CompileCatalogValue(v cue.Value) (*recipe.Catalog, []error) {
	var errs []error

	designVal := v.LookupPath(cue.ParsePath("design"))
	if !designVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no designs found in catalog"}}
	}

	iter, err := designVal.Fields()
	if err != nil {
		return nil, []error{formatCUEError(err)}
	}

	var entries []Entry
	for iter.Next() {
		entry, compileErr := CompileDesign(iter.Value())
		if compileErr != nil {
			errs = append(errs, compileErr)
			continue
		}
		entries = append(entries, *entry)
	}

	if len(entries) == 0 && len(errs) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no designs found in catalog"}}
	}

	for _, verr := range Validate(entries) {
		errs = append(errs, verr)
	}
	if len(errs) > 0 {
		return nil, errs
	}

	cat, err := BuildCatalog(entries)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: err.Error()}}
	}
	return cat, nil
}

// BuildCatalog orders validated entries by priority and assembles the
// catalog. Priority stands in for declaration order because CUE field
// order is not a stable contract.
func BuildCatalog(entries []Entry) (*recipe.Catalog, error) {
	sorted := slices.Clone(entries)
	slices.SortFunc(sorted, func(a, b Entry) int {
		return cmp.Compare(a.Priority, b.Priority)
	})
	designs := make([]recipe.Design, len(sorted))
	for i := range sorted {
		designs[i] = sorted[i].Design
	}
	return recipe.NewCatalog(designs)
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}
