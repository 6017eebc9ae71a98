package ratings

import (
	"fmt"

	"github.com/steph-dove/conventions/internal/detect"
)

// DefaultTable builds the rating rules for the built-in detectors.
func DefaultTable() *Table {
	t := NewTable()

	t.rules["python.conventions.typing_coverage"] = Rule{
		Score: func(r *detect.Result) int {
			return ladder(r.Stats.Float("any_annotation_coverage"), 0.9, 0.7, 0.5, 0.3)
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("Type annotation coverage is %.0f%%", r.Stats.Float("any_annotation_coverage")*100)
		},
		Suggestion: func(_ *detect.Result, score int) string {
			switch {
			case score >= 5:
				return ""
			case score <= 2:
				return "Add type hints to function signatures, starting with public APIs. Consider using mypy or pyright for type checking."
			default:
				return "Continue adding type hints to remaining functions. Focus on return types and complex signatures."
			}
		},
	}

	t.rules["python.conventions.docstrings"] = Rule{
		Score: func(r *detect.Result) int {
			return ladder(r.Stats.Float("function_doc_ratio"), 0.8, 0.6, 0.4, 0.2)
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("Docstring coverage is %.0f%% of public functions", r.Stats.Float("function_doc_ratio")*100)
		},
		Suggestion: func(_ *detect.Result, score int) string {
			switch {
			case score >= 5:
				return ""
			case score <= 2:
				return "Add docstrings to public functions and classes. Focus on explaining the 'why' and documenting parameters and return values."
			default:
				return "Continue adding docstrings to remaining public functions. Use a consistent style (Google, NumPy, or Sphinx)."
			}
		},
	}

	t.rules["python.conventions.naming"] = Rule{
		Score: func(r *detect.Result) int {
			return ladder(r.Stats.Float("snake_case_ratio"), 1.0, 0.95, 0.8, 0.6)
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("PEP 8 snake_case compliance is %.0f%%", r.Stats.Float("snake_case_ratio")*100)
		},
		Suggestion: func(r *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			if camel := r.Stats.Int("camel_case_functions"); camel > 0 {
				return fmt.Sprintf("Rename %d camelCase function(s) to snake_case to follow PEP 8.", camel)
			}
			return "Review function names to ensure consistent snake_case naming per PEP 8."
		},
	}

	t.rules["python.conventions.testing"] = Rule{
		Score: func(r *detect.Result) int {
			primary := r.Stats.Str("primary_framework")
			files := r.Stats.Int("test_file_count")
			switch {
			case primary == "pytest" && files >= 5:
				return 5
			case primary == "pytest":
				return 4
			case primary == "unittest" && files >= 5:
				return 3
			case files >= 1:
				return 2
			default:
				return 1
			}
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("Uses %s with %d test file(s)", r.Stats.Str("primary_framework"), r.Stats.Int("test_file_count"))
		},
		Suggestion: func(r *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			if r.Stats.Str("primary_framework") != "pytest" {
				return "Consider migrating to pytest for better fixture support, parametrization, and plugin ecosystem."
			}
			if r.Stats.Int("conftest_count") == 0 {
				return "Create a conftest.py to centralize shared fixtures."
			}
			return "Add more test files to improve coverage."
		},
	}

	t.rules["python.conventions.error_handling"] = Rule{
		Score: func(r *detect.Result) int {
			custom := r.Stats.Int("custom_exception_classes")
			bare := r.Stats.Int("bare_except_count")
			switch {
			case custom >= 3 && bare == 0:
				return 5
			case custom >= 3:
				return 4
			case custom >= 1 && bare <= 2:
				return 3
			case custom >= 1:
				return 2
			default:
				return 1
			}
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("%d custom exception classes, %d bare except clauses",
				r.Stats.Int("custom_exception_classes"), r.Stats.Int("bare_except_count"))
		},
		Suggestion: func(r *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			if r.Stats.Int("bare_except_count") > 0 {
				return "Replace bare except clauses with specific exception types and chain with raise ... from."
			}
			return "Define custom exception types for domain-specific errors."
		},
	}

	t.rules["go.conventions.error_handling"] = Rule{
		Score: func(r *detect.Result) int {
			wraps := r.Stats.Int("errorf_wrap_count")
			isAs := r.Stats.Int("errors_is_as_count")
			switch {
			case wraps >= 5 && isAs >= 3:
				return 5
			case wraps >= 3:
				return 4
			case wraps >= 1 || r.Stats.Int("pkg_errors_files") > 0:
				return 3
			default:
				return 2
			}
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("%d fmt.Errorf wrap sites, %d errors.Is/As calls",
				r.Stats.Int("errorf_wrap_count"), r.Stats.Int("errors_is_as_count"))
		},
		Suggestion: func(_ *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			return "Wrap errors with fmt.Errorf and %w, and inspect them with errors.Is/errors.As."
		},
	}

	t.rules["go.conventions.testing"] = Rule{
		Score: func(r *detect.Result) int {
			files := r.Stats.Int("test_file_count")
			table := r.Stats.Int("table_driven_files")
			switch {
			case files >= 5 && table >= 3:
				return 5
			case files >= 5:
				return 4
			case files >= 3:
				return 3
			case files >= 1:
				return 2
			default:
				return 1
			}
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("%d test files, %d using the table-driven idiom",
				r.Stats.Int("test_file_count"), r.Stats.Int("table_driven_files"))
		},
		Suggestion: func(_ *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			return "Expand table-driven tests to cover edge cases and error paths."
		},
	}

	t.rules["go.conventions.interfaces"] = Rule{
		Score: func(r *detect.Result) int {
			return ladder(r.Stats.Float("er_suffix_ratio"), 0.8, 0.6, 0.4, 0.2)
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("%d interfaces, %.0f%% with an -er/-or suffix",
				r.Stats.Int("interface_count"), r.Stats.Float("er_suffix_ratio")*100)
		},
	}

	t.rules["node.conventions.typescript"] = Rule{
		Score: func(r *detect.Result) int {
			return ladder(r.Stats.Float("typescript_ratio"), 0.9, 0.7, 0.5, 0.3)
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("TypeScript adoption is %.0f%% of source files", r.Stats.Float("typescript_ratio")*100)
		},
		Suggestion: func(_ *detect.Result, score int) string {
			if score >= 5 {
				return ""
			}
			return "Migrate remaining JavaScript files to TypeScript, starting with shared modules."
		},
	}

	t.rules["node.conventions.testing"] = Rule{
		Score: func(r *detect.Result) int {
			files := r.Stats.Int("test_file_count")
			switch {
			case files >= 5 && r.Stats.Str("primary_library") != "globals":
				return 5
			case files >= 5:
				return 4
			case files >= 3:
				return 3
			case files >= 1:
				return 2
			default:
				return 1
			}
		},
		Reason: func(r *detect.Result, _ int) string {
			return fmt.Sprintf("Uses %s with %d test file(s)", r.Stats.Str("primary_library"), r.Stats.Int("test_file_count"))
		},
	}

	// framework, di_style, and layout rules read best as confidence-backed
	// observations, so they use the default ladder.

	return t
}

// ladder maps a ratio onto 5..1 using four descending thresholds.
func ladder(v float64, t5, t4, t3, t2 float64) int {
	switch {
	case v >= t5:
		return 5
	case v >= t4:
		return 4
	case v >= t3:
		return 3
	case v >= t2:
		return 2
	default:
		return 1
	}
}
