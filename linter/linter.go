package linter

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bloodmagesoftware/skel/geom"
	"github.com/bloodmagesoftware/skel/shape"
	"github.com/bloodmagesoftware/skel/skeleton"
)

// Lint scans the shape files under dir and reports every polygon the
// skeleton builder would reject.
func Lint(dir string, k geom.Kernel) error {
	fmt.Println("🔍 Linting shape files...")

	violationCount := 0
	fileCount := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && shape.IsShapeFile(path) {
			fileCount++
			fileErrors := checkFile(path, k)
			if len(fileErrors) > 0 {
				for _, errMsg := range fileErrors {
					fmt.Println(errMsg)
					fmt.Println(strings.Repeat("-", 60))
				}
				violationCount += len(fileErrors)
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("walking directory %s: %w", dir, err)
	}

	if violationCount > 0 {
		return fmt.Errorf("linter failed: found %d invalid polygons", violationCount)
	}

	fmt.Printf("✅ Linter Passed: %d shape files are valid.\n", fileCount)
	return nil
}

// checkFile validates one shape file. A file that does not parse counts as
// a single violation.
func checkFile(path string, k geom.Kernel) []string {
	doc := shape.New()
	if err := doc.Load(path); err != nil {
		return []string{fmt.Sprintf(
			"  [ERROR] File: %s\n"+
				"    Reason: %v",
			path, err,
		)}
	}

	var errs []string
	for i, p := range doc.Polygons {
		if err := skeleton.Validate(p.Geom(), k); err != nil {
			errs = append(errs, message(path, i, p.Name, err))
		}
	}
	if len(errs) == 0 && len(doc.Polygons) > 1 {
		if err := skeleton.ValidateDisjoint(doc.Geom(), k); err != nil {
			errs = append(errs, fmt.Sprintf(
				"  [ERROR] File: %s\n"+
					"    Reason: %v\n"+
					"    Solution: Polygons in one file must not overlap.",
				path, err,
			))
		}
	}
	return errs
}

func message(path string, index int, name string, err error) string {
	label := fmt.Sprintf("polygon %d", index)
	if name != "" {
		label = fmt.Sprintf("polygon %d (%s)", index, name)
	}
	msg := fmt.Sprintf(
		"  [ERROR] File: %s\n"+
			"    Shape: %s\n"+
			"    Reason: %v",
		path, label, err,
	)

	var verr *skeleton.ValidationError
	if errors.As(err, &verr) {
		if solution := solutionFor(verr.Reason); solution != "" {
			msg += "\n    Solution: " + solution
		}
	}
	return msg
}

func solutionFor(reason string) string {
	switch {
	case strings.Contains(reason, "wind"):
		return "Run skel fmt to fix the winding."
	case strings.Contains(reason, "duplicate consecutive"):
		return "Run skel fmt to drop repeated points."
	case strings.Contains(reason, "crosses"):
		return "Move the vertices so the edges do not cross."
	}
	return ""
}
