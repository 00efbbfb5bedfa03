package inmemdb

import (
	"context"
	"sync"

	"github.com/trezcool/kiongozi/core"
	"github.com/trezcool/kiongozi/core/assessment"
	"github.com/trezcool/kiongozi/core/team"
	"github.com/trezcool/kiongozi/core/user"
)

type (
	// DB keeps every table in memory. It is safe for concurrent use.
	DB struct {
		user        *userTable
		selfAssmt   *selfAssessmentTable
		feedback    *feedbackTable
		invitations *invitationTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	selfAssessmentTable struct {
		sync.RWMutex
		table map[string]assessment.SelfAssessment // {managerID: SelfAssessment}
	}

	feedbackTable struct {
		sync.RWMutex
		table map[string]assessment.TeamFeedback // {respondentID: TeamFeedback}
	}

	invitationTable struct {
		sync.RWMutex
		table map[string]*team.Invitation // {token: Invitation}
	}
)

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		user:        &userTable{table: make(map[string]*user.User)},
		selfAssmt:   &selfAssessmentTable{table: make(map[string]assessment.SelfAssessment)},
		feedback:    &feedbackTable{table: make(map[string]assessment.TeamFeedback)},
		invitations: &invitationTable{table: make(map[string]*team.Invitation)},
	}
}

// WithTx runs fn directly: writes are not rolled back if fn fails.
func (db *DB) WithTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}
