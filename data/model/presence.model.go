package model

import (
	"strings"

	"github.com/fabriq/collab/data/structures"
)

// MaxVisibleIndicators caps how many collaborator badges are rendered;
// anything beyond it is summarized as an overflow count.
const MaxVisibleIndicators = 3

type CollaboratorModel struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
}

type IndicatorModel struct {
	UserID   string `json:"user_id"`
	UserName string `json:"user_name"`
	Initial  string `json:"initial"`
}

type IndicatorListModel struct {
	Visible  []IndicatorModel `json:"visible"`
	Overflow int              `json:"overflow"`
}

func (l IndicatorListModel) Empty() bool {
	return len(l.Visible) == 0
}

// NewIndicatorList projects a set of collaborators into a renderable badge
// list. An empty input yields an empty list so callers render nothing.
func NewIndicatorList(users []CollaboratorModel) IndicatorListModel {
	result := IndicatorListModel{}

	for _, u := range users {
		if len(result.Visible) == MaxVisibleIndicators {
			result.Overflow = len(users) - MaxVisibleIndicators

			break
		}

		result.Visible = append(result.Visible, IndicatorModel{
			UserID:   u.UserID,
			UserName: u.UserName,
			Initial:  initial(u.UserName),
		})
	}

	return result
}

// IndicatorsFromEditors is the projection used by editing badges.
func IndicatorsFromEditors(users []structures.EditingUser) IndicatorListModel {
	cm := make([]CollaboratorModel, len(users))
	for i, u := range users {
		cm[i] = CollaboratorModel{UserID: u.UserID, UserName: u.UserName}
	}

	return NewIndicatorList(cm)
}

// IndicatorsFromViewers is the projection used by viewing badges.
func IndicatorsFromViewers(users []structures.ViewingUser) IndicatorListModel {
	cm := make([]CollaboratorModel, len(users))
	for i, u := range users {
		cm[i] = CollaboratorModel{UserID: u.UserID, UserName: u.UserName}
	}

	return NewIndicatorList(cm)
}

func initial(name string) string {
	for _, r := range name {
		return strings.ToUpper(string(r))
	}

	return ""
}
