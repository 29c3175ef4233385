// Package hclcatalog reads course definitions written as HCL blocks:
//
//	course "CS300" {
//	  name          = "Algorithms"
//	  prerequisites = ["CS200", "MATH201"]
//	}
//
// A catalog may span a directory of .hcl files; blocks are collected from the
// files in lexical order.
package hclcatalog

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"

	"github.com/vk/courseplanner/internal/course"
	"github.com/vk/courseplanner/internal/ctxlog"
	"github.com/vk/courseplanner/internal/fsutil"
)

// Loader is the HCL implementation of source.Source.
type Loader struct {
	path string
}

// New returns a Loader for a single .hcl file or a directory of them.
func New(path string) *Loader {
	if path == "" {
		panic("hclcatalog: path must not be empty")
	}
	return &Loader{path: path}
}

// fileRoot decodes the top level of any catalog file. Unknown top-level
// blocks are left in Remain so that catalogs can carry other definitions.
type fileRoot struct {
	Courses []*courseBlock `hcl:"course,block"`
	Remain  hcl.Body       `hcl:",remain"`
}

type courseBlock struct {
	ID            string         `hcl:"id,label"`
	Name          string         `hcl:"name"`
	Prerequisites hcl.Expression `hcl:"prerequisites,optional"`
}

var prerequisiteListType = cty.List(cty.String)

// Load parses every catalog file and returns the courses in file order, then
// block order within each file.
func (l *Loader) Load(ctx context.Context) ([]course.Course, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL catalog loader started.", "path", l.path)

	files, err := fsutil.CollectFiles(l.path, ".hcl")
	if err != nil {
		return nil, errors.Wrap(err, "hcl catalog")
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	var courses []course.Course

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to parse HCL file %s", file)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &root); diags.HasErrors() {
			return nil, errors.Wrapf(diags, "failed to decode HCL file %s", file)
		}

		for _, block := range root.Courses {
			c, err := translateCourse(block)
			if err != nil {
				return nil, errors.Wrapf(err, "%s: course %q", file, block.ID)
			}
			courses = append(courses, c)
		}
		logger.Debug("Decoded HCL file.", "file", file, "courses", len(root.Courses))
	}

	logger.Debug("HCL catalog loading complete.", "courses", len(courses))
	return courses, nil
}

func translateCourse(block *courseBlock) (course.Course, error) {
	prereqs, err := decodePrerequisites(block.Prerequisites)
	if err != nil {
		return course.Course{}, err
	}
	return course.New(block.ID, block.Name, prereqs)
}

// decodePrerequisites evaluates the attribute without variables and converts
// it to list(string). An absent or null attribute means no prerequisites.
func decodePrerequisites(expr hcl.Expression) ([]string, error) {
	if expr == nil {
		return nil, nil
	}

	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return nil, diags
	}
	if val.IsNull() {
		return nil, nil
	}
	if !val.IsWhollyKnown() {
		return nil, errors.New("prerequisites must be a literal list")
	}

	list, err := convert.Convert(val, prerequisiteListType)
	if err != nil {
		return nil, errors.Wrapf(err, "prerequisites must be a list of strings, got %s", val.Type().FriendlyName())
	}
	if list.LengthInt() == 0 {
		return nil, nil
	}

	out := make([]string, 0, list.LengthInt())
	for _, elem := range list.AsValueSlice() {
		if elem.IsNull() {
			continue
		}
		out = append(out, elem.AsString())
	}
	return out, nil
}
