package export

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/archive-export/pkg/enums"
	pkgerrors "github.com/angelmondragon/archive-export/pkg/errors"
)

const dateLayout = "2006-01-02"

// Message text printed to the operator.
const (
	msgInvalidDate      = "Invalid Date, please input a date atleast yesterday"
	msgDateNotSpecified = "Date not specified"
)

// UsageHint is printed for every argument that is not a category.
var UsageHint = []string{
	"Not a valid argument",
	"Valid arguments are: " + strings.Join(categoryNames(), ", "),
	"If you want to specify a date please enter the date first and then the requests",
}

// Usage is the command synopsis.
const Usage = "usage: archive-export [flags] [region] [yyyy-MM-dd] category..."

// Step is one positional category argument. Exactly one of Category or
// Notice is set; notices are printed in place when the run reaches them.
type Step struct {
	Category enums.Category
	Notice   []string
}

// Plan is a parsed invocation.
type Plan struct {
	Region        enums.Region
	StartDate     time.Time
	DateSpecified bool
	// Preamble is printed before any category runs.
	Preamble []string
	Steps    []Step
}

// Categories lists the categories that will be exported, in order.
func (p *Plan) Categories() []enums.Category {
	out := make([]enums.Category, 0, len(p.Steps))
	for _, step := range p.Steps {
		if step.Category != "" {
			out = append(out, step.Category)
		}
	}
	return out
}

// Yesterday returns local midnight of the day before now.
func Yesterday(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location()).AddDate(0, 0, -1)
}

// ParseArgs reads [region] [date] category... The date must not be later
// than yesterday in now's location. Argument errors are returned before any
// category is planned so an invalid invocation never reaches the API.
func ParseArgs(args []string, defaultRegion enums.Region, now time.Time) (*Plan, error) {
	plan := &Plan{Region: defaultRegion, StartDate: Yesterday(now)}
	rest := trimArgs(args)
	regionGiven := false

	if len(rest) > 0 {
		if region, err := enums.ParseRegion(strings.ToLower(rest[0])); err == nil {
			plan.Region = region
			regionGiven = true
			rest = rest[1:]
		}
	}
	if !plan.Region.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid region %q", plan.Region))
	}
	if len(rest) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUsage, "no categories given")
	}

	first := rest[0]
	if start, err := time.ParseInLocation(dateLayout, first, now.Location()); err == nil {
		if start.After(Yesterday(now)) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidDate)
		}
		plan.StartDate = start
		plan.DateSpecified = true
		plan.Preamble = append(plan.Preamble, "Date Specified: "+start.Format(dateLayout))
		rest = rest[1:]
	} else if _, catErr := enums.ParseCategory(first); catErr == nil {
		plan.Preamble = append(plan.Preamble, msgDateNotSpecified)
	} else if !regionGiven && !strings.ContainsAny(first, "0123456789") {
		// A leading word that is neither a category nor a region is most
		// likely a mistyped region.
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("unknown region %q, valid regions are: %s", first, strings.Join(regionNames(), ", ")))
	} else {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("not a valid date: %q", first))
	}

	seen := map[enums.Category]bool{}
	for _, tok := range rest {
		category, err := enums.ParseCategory(tok)
		switch {
		case err != nil:
			plan.Steps = append(plan.Steps, Step{Notice: UsageHint})
		case seen[category]:
			plan.Steps = append(plan.Steps, Step{Notice: []string{fmt.Sprintf("%s already requested, skipping", category)}})
		default:
			seen[category] = true
			plan.Steps = append(plan.Steps, Step{Category: category})
		}
	}
	if len(seen) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeUsage, "no valid categories given")
	}
	return plan, nil
}

func trimArgs(args []string) []string {
	out := make([]string, 0, len(args))
	for _, a := range args {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

func categoryNames() []string {
	names := []string{}
	for _, c := range enums.Categories() {
		names = append(names, c.String())
	}
	return names
}

func regionNames() []string {
	names := []string{}
	for _, r := range enums.Regions() {
		names = append(names, r.String())
	}
	return names
}
