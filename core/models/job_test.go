package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProcessStageMapping(t *testing.T) {
	cases := map[ProcessStage]OverallStatus{
		StagePending:         StatusPending,
		StageOutlookCreation: StatusInProgress,
		StageIMSSProcessing:  StatusInProgress,
		StageEmailMonitoring: StatusInProgress,
		StagePDFReady:        StatusCompleted,
		StageError:           StatusFailed,
	}
	for stage, want := range cases {
		got, ok := stage.Status()
		require.True(t, ok, stage)
		require.Equal(t, want, got, stage)
	}

	_, ok := ProcessStage("archived").Status()
	require.False(t, ok)
}

func TestAccountStageMapping(t *testing.T) {
	got, ok := AccountSuccess.Status()
	require.True(t, ok)
	require.Equal(t, StatusCompleted, got)

	got, ok = AccountFailed.Status()
	require.True(t, ok)
	require.Equal(t, StatusFailed, got)

	_, ok = AccountStage("queued").Status()
	require.False(t, ok)
}

func TestClampProgress(t *testing.T) {
	require.Equal(t, 0, ClampProgress(-5))
	require.Equal(t, 100, ClampProgress(150))
	require.Equal(t, 42, ClampProgress(42))
}

func TestCheckConsistency(t *testing.T) {
	ok := ProcessJob{ID: "p1", Stage: StageIMSSProcessing, OverallStatus: StatusInProgress}
	require.NoError(t, CheckConsistency(ok))
	require.Equal(t, StatusInProgress, CoarseStatus(ok))

	mismatch := ProcessJob{ID: "p2", Stage: StagePDFReady, OverallStatus: StatusInProgress}
	err := CheckConsistency(mismatch)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrStateInconsistency))
	require.Equal(t, StatusFailed, CoarseStatus(mismatch))

	unknown := ProcessJob{ID: "p3", Stage: "archived", OverallStatus: StatusCompleted}
	require.ErrorIs(t, CheckConsistency(unknown), ErrStateInconsistency)
	require.Equal(t, "Error", StageLabel(unknown))
	require.Equal(t, "IMSS Processing", StageLabel(ok))

	var derr *Error
	require.True(t, errors.As(err, &derr))
	require.Equal(t, "p2", derr.JobID)
}

func TestIsActionable(t *testing.T) {
	running := ProcessJob{ID: "p1", Stage: StageEmailMonitoring, OverallStatus: StatusInProgress}
	require.True(t, IsActionable(running, false))
	require.False(t, IsActionable(running, true))

	done := ProcessJob{ID: "p2", Stage: StagePDFReady, OverallStatus: StatusCompleted}
	require.False(t, IsActionable(done, false))

	failed := AccountJob{ID: "1", Stage: AccountFailed, OverallStatus: StatusFailed}
	require.True(t, IsTerminal(failed))
	require.False(t, IsActionable(failed, false))
}

func TestSameState(t *testing.T) {
	a := ProcessJob{
		ID:                "p1",
		Stage:             StageIMSSProcessing,
		OverallStatus:     StatusInProgress,
		SubsystemStatuses: map[Subsystem]string{SubsystemOutlook: "completed"},
	}
	b := a
	b.SubsystemStatuses = map[Subsystem]string{SubsystemOutlook: "completed"}
	require.True(t, SameState(a, b))

	b.SubsystemStatuses = map[Subsystem]string{SubsystemOutlook: "failed"}
	require.False(t, SameState(a, b))

	c := a
	c.ProgressPercentage = 50
	require.False(t, SameState(a, c))
}

func TestStatusLabel(t *testing.T) {
	require.Equal(t, "Processing", StatusInProgress.Label())
	require.True(t, StatusFailed.Valid())
	require.False(t, OverallStatus("paused").Valid())
	require.Equal(t, "Unknown", OverallStatus("paused").Label())
}

func TestMergeResult(t *testing.T) {
	prev := CURPResult{CURPID: "AAAA123456HDFBBB01", FirstName: "Ana"}

	got, conflict := MergeResult(prev, CURPResult{CURPID: "AAAA123456HDFBBB01", FirstName: "Ana", Email: "ana@outlook.com"})
	require.False(t, conflict)
	require.Equal(t, "ana@outlook.com", got.Email)

	got, conflict = MergeResult(prev, CURPResult{FirstName: "Eva"})
	require.True(t, conflict)
	require.Equal(t, prev, got)

	got, conflict = MergeResult(CURPResult{}, CURPResult{FirstName: "Eva"})
	require.False(t, conflict)
	require.Equal(t, "Eva", got.FirstName)

	acct, conflict := MergeResult(AccountResult{Email: "a@outlook.com"}, AccountResult{Email: "a@outlook.com", Password: "pw"})
	require.False(t, conflict)
	require.Equal(t, "pw", acct.Password)
}
