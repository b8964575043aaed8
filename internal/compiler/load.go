package compiler

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"

	"github.com/roach88/tickflow/internal/ir"
)

// LoadMode controls how errors are handled during loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the plans compiled from a directory.
type LoadResult struct {
	Plans     []ir.Plan
	CUEValue  cue.Value // unified value of every file
	FileCount int
}

// Plan returns the plan with the given name.
func (r *LoadResult) Plan(name string) (ir.Plan, bool) {
	for _, p := range r.Plans {
		if p.Name == name {
			return p, true
		}
	}
	return ir.Plan{}, false
}

// Names returns the plan names in load order.
func (r *LoadResult) Names() []string {
	names := make([]string, len(r.Plans))
	for i, p := range r.Plans {
		names[i] = p.Name
	}
	return names
}

// LoadError represents an error that occurred while reading plan files.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ErrorCode returns the E-code carried by a loader, compiler or validation
// error, or ErrCodeGeneric.
func ErrorCode(err error) string {
	var (
		le *LoadError
		ce *CompileError
		ve ValidationError
	)
	switch {
	case errors.As(err, &le):
		return le.Code
	case errors.As(err, &ce):
		return ce.Code
	case errors.As(err, &ve):
		return ve.Code
	default:
		return ErrCodeGeneric
	}
}

// LoadDir compiles every .cue file under dir (recursively). Files are
// unified into one value, so a plan may be split across files.
// If mode is LoadModeFailFast, returns on first error.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("plans directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing plans directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(files) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	value := ctx.CompileString("{}")
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("reading %s: %v", path, err)}}
		}
		v := ctx.CompileBytes(data, cue.Filename(path))
		if err := v.Err(); err != nil {
			return nil, []error{loadErrorFrom(err, ErrCodeLoadFailed)}
		}
		value = value.Unify(v)
	}
	if err := value.Err(); err != nil {
		return nil, []error{loadErrorFrom(err, ErrCodeBuildFailed)}
	}

	plans, errs := compileValue(value, mode)
	return &LoadResult{Plans: plans, CUEValue: value, FileCount: len(files)}, errs
}

// LoadFile compiles a single .cue file.
func LoadFile(path string) ([]ir.Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading %s: %v", path, err)}
	}
	return CompileString(string(data), path)
}

// CompileString compiles CUE source holding one or more plans. filename
// is used in error positions.
func CompileString(src, filename string) ([]ir.Plan, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, loadErrorFrom(err, ErrCodeBuildFailed)
	}
	plans, errs := compileValue(v, LoadModeFailFast)
	if len(errs) > 0 {
		return nil, errs[0]
	}
	return plans, nil
}

func compileValue(value cue.Value, mode LoadMode) ([]ir.Plan, []error) {
	var (
		plans []ir.Plan
		errs  []error
	)

	plansVal := value.LookupPath(cue.ParsePath("plan"))
	if !plansVal.Exists() {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: "no plans found"}}
	}
	iter, err := plansVal.Fields()
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating plans: %v", err)}}
	}
	for iter.Next() {
		p, err := CompilePlan(iter.Value())
		if err != nil {
			errs = append(errs, err)
			if mode == LoadModeFailFast {
				return plans, errs
			}
			continue
		}
		for _, verr := range Validate(p) {
			errs = append(errs, verr)
			if mode == LoadModeFailFast {
				return plans, errs
			}
		}
		plans = append(plans, *p)
	}

	if len(plans) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no plans found"})
	}
	return plans, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths, sorted.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	slices.Sort(files)
	return files, err
}

func loadErrorFrom(err error, code string) *LoadError {
	le := &LoadError{Code: code, Message: err.Error()}
	var ce *CompileError
	if errors.As(formatCUEError(err, "cue"), &ce) {
		le.Message = ce.Message
		le.Pos = ce.Pos
	}
	return le
}
