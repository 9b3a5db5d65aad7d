package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"git.home.luguber.info/inful/docnav/internal/site"
)

// Rule names reported in issues.
const (
	RuleSiteMissing         = "site-missing"
	RuleTitleRequired       = "title-required"
	RuleDescriptionRequired = "description-required"
	RuleBaseSyntax          = "base-syntax"
	RuleRepoSyntax          = "repo-syntax"
	RuleNavTextRequired     = "nav-text-required"
	RuleNavTextWhitespace   = "nav-text-whitespace"
	RuleNavLinkRequired     = "nav-link-required"
	RuleNavLinkSyntax       = "nav-link-syntax"
	RuleNavLinkDuplicate    = "nav-link-duplicate"
	RuleNavGroupEmpty       = "nav-group-empty"
	RuleNavGroupLink        = "nav-group-link"
	RuleNavGroupDuplicate   = "nav-group-duplicate"
	RuleNavAriaLabel        = "nav-aria-label"
	RuleSidebarPrefixSyntax = "sidebar-prefix-syntax"
	RuleSidebarPagesEmpty   = "sidebar-pages-empty"
	RuleSidebarPageSyntax   = "sidebar-page-syntax"
)

var repoShorthand = regexp.MustCompile(`^[\w.-]+/[\w.-]+$`)

// Validator checks site definitions. It is safe for concurrent use.
type Validator struct {
	fields *validator.Validate
}

// New creates a Validator.
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "" || name == "-" {
			return fld.Name
		}
		return name
	})
	if err := v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	}); err != nil {
		panic(fmt.Errorf("register notblank: %w", err))
	}
	return &Validator{fields: v}
}

var defaultValidator = New()

// Validate checks s with the default validator.
func Validate(s *site.Site) *Result {
	return defaultValidator.Validate(s)
}

// Validate checks s and returns every issue found. It never mutates s.
func (v *Validator) Validate(s *site.Site) *Result {
	res := &Result{}
	if s == nil {
		res.add(SeverityError, "", RuleSiteMissing, "no site definition", "add a site block to the configuration")
		return res
	}
	v.checkFields(s, res)
	checkMetadata(s, res)
	checkNav(s.ThemeConfig.Nav, res)
	checkSidebar(s.ThemeConfig.Sidebar, res)
	return res
}

// checkFields applies the struct tag rules declared on the site types.
func (v *Validator) checkFields(s *site.Site, res *Result) {
	err := v.fields.Struct(s)
	if err == nil {
		return
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		res.add(SeverityError, "", RuleSiteMissing, err.Error(), "")
		return
	}
	for _, fe := range fieldErrs {
		path := fieldPath(fe.Namespace())
		switch fe.Field() {
		case "title":
			res.add(SeverityError, path, RuleTitleRequired, "site title must not be empty", "set title")
		case "description":
			res.add(SeverityError, path, RuleDescriptionRequired, "site description must not be empty", "set description")
		case "text":
			res.add(SeverityError, path, RuleNavTextRequired, "menu entry has no display text", "set text to the label shown in the navigation bar")
		default:
			res.add(SeverityError, path, fe.Tag(), fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()), "")
		}
	}
}

// fieldPath drops the root type name from a validator namespace.
func fieldPath(namespace string) string {
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func checkMetadata(s *site.Site, res *Result) {
	if s.Base != "" && (!strings.HasPrefix(s.Base, "/") || !strings.HasSuffix(s.Base, "/")) {
		res.add(SeverityError, "base", RuleBaseSyntax,
			fmt.Sprintf("base %q must start and end with /", s.Base), "use a value such as /docs/")
	}
	if repo := s.ThemeConfig.Repo; repo != "" {
		if site.ClassifyLink(repo) != site.LinkExternal && !repoShorthand.MatchString(repo) {
			res.add(SeverityWarning, "themeConfig.repo", RuleRepoSyntax,
				fmt.Sprintf("repo %q is neither a URL nor owner/name", repo), "")
		}
	}
}

func checkNav(nav []site.NavEntry, res *Result) {
	groups := make(map[string]int)
	for i, entry := range nav {
		res.EntriesTotal++
		base := fmt.Sprintf("themeConfig.nav[%d]", i)
		checkText(base, entry.Text, res)

		if !entry.IsGroup() {
			checkLink(base+".link", entry.Link, res)
			continue
		}

		if label := strings.ToLower(strings.TrimSpace(entry.Text)); label != "" {
			if first, dup := groups[label]; dup {
				res.add(SeverityError, base+".text", RuleNavGroupDuplicate,
					fmt.Sprintf("group label %q is already used by themeConfig.nav[%d]", entry.Text, first),
					"give each dropdown a distinct label")
			} else {
				groups[label] = i
			}
		}
		if entry.Link != "" {
			res.add(SeverityError, base+".link", RuleNavGroupLink,
				"a group cannot have a link", "move the link into an item of the group")
		}
		if len(entry.Items) == 0 {
			res.add(SeverityError, base+".items", RuleNavGroupEmpty,
				fmt.Sprintf("group %q has no items", entry.Text), "add items or turn the group into a plain link")
		}
		if entry.AriaLabel == "" {
			res.add(SeverityInfo, base+".ariaLabel", RuleNavAriaLabel,
				fmt.Sprintf("group %q has no ariaLabel", entry.Text), "describe the dropdown for screen readers")
		}

		seen := make(map[string]int)
		for j, item := range entry.Items {
			res.EntriesTotal++
			itemPath := fmt.Sprintf("%s.items[%d]", base, j)
			checkText(itemPath, item.Text, res)
			checkLink(itemPath+".link", item.Link, res)
			if item.Link == "" {
				continue
			}
			if first, dup := seen[item.Link]; dup {
				res.add(SeverityWarning, itemPath+".link", RuleNavLinkDuplicate,
					fmt.Sprintf("link %s duplicates %s.items[%d]", item.Link, base, first), "")
			} else {
				seen[item.Link] = j
			}
		}
	}
}

// checkText reports surrounding whitespace; emptiness is a field rule.
func checkText(path, text string, res *Result) {
	trimmed := strings.TrimSpace(text)
	if trimmed != "" && trimmed != text {
		res.add(SeverityWarning, path+".text", RuleNavTextWhitespace,
			fmt.Sprintf("text %q has leading or trailing whitespace", text), fmt.Sprintf("use %q", trimmed))
	}
}

func checkLink(path, link string, res *Result) {
	if link == "" {
		res.add(SeverityError, path, RuleNavLinkRequired, "menu item has no link", "set link to a URL or a site path such as /guide/")
		return
	}
	if site.ClassifyLink(link) == site.LinkInvalid {
		res.add(SeverityError, path, RuleNavLinkSyntax,
			fmt.Sprintf("link %q is neither an absolute URL nor a site-relative path", link),
			"use https://... or a path starting with /")
	}
}

func checkSidebar(sidebar site.Sidebar, res *Result) {
	for _, prefix := range site.SortedPrefixes(sidebar) {
		res.EntriesTotal++
		path := fmt.Sprintf("themeConfig.sidebar[%q]", prefix)
		if !strings.HasPrefix(prefix, "/") || !strings.HasSuffix(prefix, "/") {
			res.add(SeverityError, path, RuleSidebarPrefixSyntax,
				fmt.Sprintf("route prefix %q must start and end with /", prefix), "")
		}
		spec := sidebar[prefix]
		if spec.IsAuto() {
			continue
		}
		if len(spec.Pages) == 0 {
			res.add(SeverityError, path, RuleSidebarPagesEmpty, "explicit sidebar lists no pages", "list page routes or use auto")
			continue
		}
		for i, page := range spec.Pages {
			if site.ClassifyLink(page) != site.LinkInternal {
				res.add(SeverityError, fmt.Sprintf("%s[%d]", path, i), RuleSidebarPageSyntax,
					fmt.Sprintf("sidebar page %q is not a site-relative route", page), "")
			}
		}
	}
}
