package discord

import (
	"fmt"

	"go.uber.org/zap"
)

// pager abstracts the three ways of reaching a later search-result page so
// the navigation protocol itself can be exercised without a browser.
type pager interface {
	// clickPageButton clicks a direct "Page N" button if one is visible.
	clickPageButton(page int) bool

	// fillPageInput reveals the ellipsis numeric input, fills it with the
	// target page and submits. Reports whether that path succeeded.
	fillPageInput(page int) bool

	// clickNext clicks the "Next" control once if it is visible.
	clickNext() bool
}

// navigateToResultsPage moves the result view to the target page, trying
// in order: direct page button, ellipsis input, sequential Next clicks.
// First success wins. Returns false when the Next control disappears
// before the target is reached; callers treat that as a soft failure.
func navigateToResultsPage(p pager, target int) bool {
	if target <= 1 {
		return true
	}
	if p.clickPageButton(target) {
		return true
	}
	if p.fillPageInput(target) {
		return true
	}
	for i := 0; i < target-1; i++ {
		if !p.clickNext() {
			return false
		}
	}
	return true
}

// playwrightPager drives the real result pagination controls.
type playwrightPager struct {
	s Session
}

func (p playwrightPager) clickPageButton(page int) bool {
	selector := fmt.Sprintf(`button:has-text("Page %d")`, page)
	button, err := p.s.page.QuerySelector(selector)
	if err != nil || button == nil {
		return false
	}
	if visible, err := button.IsVisible(); err != nil || !visible {
		return false
	}
	if err := button.Click(); err != nil {
		p.s.log.Debug("page button click failed", zap.Error(err))
		return false
	}
	p.s.settle(pageButtonSettle)
	return true
}

func (p playwrightPager) fillPageInput(page int) bool {
	ellipsis, err := p.s.page.QuerySelector(`button:has-text("...")`)
	if err != nil || ellipsis == nil {
		return false
	}
	if visible, err := ellipsis.IsVisible(); err != nil || !visible {
		return false
	}
	if err := ellipsis.Click(); err != nil {
		return false
	}
	p.s.settle(ellipsisSettle)

	input, err := p.s.page.QuerySelector(`input[type="number"], input[type="text"]`)
	if err != nil || input == nil {
		return false
	}
	if err := input.Fill(fmt.Sprintf("%d", page)); err != nil {
		return false
	}
	if err := input.Press("Enter"); err != nil {
		return false
	}
	p.s.settle(pageButtonSettle)
	return true
}

func (p playwrightPager) clickNext() bool {
	next, err := p.s.page.QuerySelector(`button:has-text("Next")`)
	if err != nil || next == nil {
		return false
	}
	if visible, err := next.IsVisible(); err != nil || !visible {
		return false
	}
	if err := next.Click(); err != nil {
		return false
	}
	p.s.settle(nextButtonSettle)
	return true
}
