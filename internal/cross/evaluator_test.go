package cross

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eIGato/hightech-cross/internal/clock"
)

var begins = time.Date(2020, 5, 16, 10, 0, 0, 0, time.UTC)

func testCross() Tournament {
	return Tournament{
		ID:       "cross-1",
		Name:     "Spring cross",
		BeginsAt: begins,
		EndsAt:   begins.Add(4 * time.Hour),
	}
}

func testMission(sn int) Mission {
	return Mission{
		ID:      "mission-" + string(rune('a'+sn)),
		CrossID: "cross-1",
		SN:      sn,
		Name:    "Old bridge",
		Answer:  "Pushkin",
		Prompts: []Prompt{
			{ID: "p1", SN: 1, Text: "Look at the plaque"},
			{ID: "p2", SN: 2, Text: "A poet"},
		},
	}
}

func setup(t *testing.T, offset time.Duration) (*Evaluator, *memLedger, *clock.FakeClock) {
	t.Helper()
	store := &memLedger{}
	clk := clock.Fake(begins.Add(offset))
	return NewEvaluator(store, clk), store, clk
}

func TestSubmitRightAnswerTwice(t *testing.T) {
	ev, store, clk := setup(t, 20*time.Minute)
	ctx := context.Background()

	out, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.True(t, out.Logged)

	clk.Advance(10 * time.Minute)
	out, err = ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.False(t, out.Logged)

	assert.Equal(t, 1, store.count(EventRightAnswer))
	st, err := ev.Status(ctx, testMission(1), "team-a")
	require.NoError(t, err)
	assert.True(t, st.Finished)
	assert.Equal(t, 20*time.Minute, st.Penalty)
}

func TestAnswerIsCaseSensitiveAndUntrimmed(t *testing.T) {
	ev, store, _ := setup(t, time.Minute)
	ctx := context.Background()

	for _, text := range []string{"pushkin", "Pushkin ", " Pushkin"} {
		out, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", text)
		require.NoError(t, err)
		assert.False(t, out.Correct, "text %q", text)
	}
	assert.Equal(t, 3, store.count(EventWrongAnswer))
	assert.Equal(t, 0, store.count(EventRightAnswer))
}

func TestWrongAnswerDedup(t *testing.T) {
	ctx := context.Background()

	t.Run("same text", func(t *testing.T) {
		ev, store, clk := setup(t, time.Minute)
		for range 3 {
			out, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Lermontov")
			require.NoError(t, err)
			assert.False(t, out.Correct)
			clk.Advance(time.Minute)
		}
		assert.Equal(t, 1, store.count(EventWrongAnswer))

		st, err := ev.Status(ctx, testMission(1), "team-a")
		require.NoError(t, err)
		assert.Equal(t, WrongAnswerPenalty, st.Penalty)
		assert.False(t, st.Finished)
	})

	t.Run("distinct texts", func(t *testing.T) {
		ev, store, _ := setup(t, time.Minute)
		for _, text := range []string{"Lermontov", "Tolstoy", "Gogol"} {
			_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", text)
			require.NoError(t, err)
		}
		assert.Equal(t, 3, store.count(EventWrongAnswer))

		st, err := ev.Status(ctx, testMission(1), "team-a")
		require.NoError(t, err)
		assert.Equal(t, 90*time.Minute, st.Penalty)
	})

	t.Run("dedup is per team", func(t *testing.T) {
		ev, store, _ := setup(t, time.Minute)
		_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Gogol")
		require.NoError(t, err)
		_, err = ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-b", "Gogol")
		require.NoError(t, err)
		assert.Equal(t, 2, store.count(EventWrongAnswer))
	})
}

func TestRightAnswerPenaltyIsElapsedTime(t *testing.T) {
	ctx := context.Background()
	var prev time.Duration
	for _, minutes := range []int{0, 5, 37, 120} {
		ev, _, _ := setup(t, time.Duration(minutes)*time.Minute)
		_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
		require.NoError(t, err)

		st, err := ev.Status(ctx, testMission(1), "team-a")
		require.NoError(t, err)
		assert.Equal(t, time.Duration(minutes)*time.Minute, st.Penalty)
		assert.GreaterOrEqual(t, st.Penalty, prev)
		prev = st.Penalty
	}
}

func TestFinishedMissionIgnoresFurtherAnswers(t *testing.T) {
	ev, store, clk := setup(t, 10*time.Minute)
	ctx := context.Background()

	_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)

	clk.Advance(time.Hour)
	out, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "nonsense")
	require.NoError(t, err)
	assert.True(t, out.Correct)
	assert.False(t, out.Logged)
	assert.Equal(t, 1, store.len())
}

func TestWindowGate(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		name   string
		offset time.Duration
	}{
		{"before start", -time.Second},
		{"at end", 4 * time.Hour},
		{"after end", 5 * time.Hour},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ev, store, _ := setup(t, tc.offset)

			out, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
			require.ErrorIs(t, err, ErrWindowClosed)
			assert.False(t, out.Correct)

			_, err = ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "wrong")
			require.ErrorIs(t, err, ErrWindowClosed)

			_, logged, err := ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 1)
			require.ErrorIs(t, err, ErrWindowClosed)
			assert.False(t, logged)

			_, _, err = ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 99)
			require.ErrorIs(t, err, ErrWindowClosed, "window check comes before the serial lookup")

			assert.Zero(t, store.len())
		})
	}
}

func TestWindowOpensAtStart(t *testing.T) {
	ev, _, _ := setup(t, 0)
	out, err := ev.SubmitAnswer(context.Background(), testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)
	assert.True(t, out.Correct)
}

func TestRequestPromptTwice(t *testing.T) {
	ev, store, clk := setup(t, 5*time.Minute)
	ctx := context.Background()

	first, logged, err := ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 2)
	require.NoError(t, err)
	assert.True(t, logged)

	clk.Advance(time.Minute)
	second, logged, err := ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 2)
	require.NoError(t, err)
	assert.False(t, logged)

	assert.Equal(t, first, second)
	assert.Equal(t, "A poet", second.Text)
	assert.Equal(t, 1, store.count(EventGetPrompt))

	st, err := ev.Status(ctx, testMission(1), "team-a")
	require.NoError(t, err)
	assert.Equal(t, PromptPenalty, st.Penalty)
}

func TestRequestPromptUnknownSerial(t *testing.T) {
	ev, store, _ := setup(t, time.Minute)
	_, _, err := ev.RequestPrompt(context.Background(), testCross(), testMission(1), "team-a", 7)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.len())
}

func TestRequestPromptAfterFinishIsFree(t *testing.T) {
	ev, store, _ := setup(t, time.Minute)
	ctx := context.Background()

	_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)

	p, logged, err := ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 1)
	require.NoError(t, err)
	assert.False(t, logged)
	assert.Equal(t, "Look at the plaque", p.Text)
	assert.Zero(t, store.count(EventGetPrompt))
}

func TestMissionFromOtherCross(t *testing.T) {
	ev, store, _ := setup(t, time.Minute)
	m := testMission(1)
	m.CrossID = "cross-2"

	_, err := ev.SubmitAnswer(context.Background(), testCross(), m, "team-a", "Pushkin")
	require.ErrorIs(t, err, ErrNotFound)
	_, _, err = ev.RequestPrompt(context.Background(), testCross(), m, "team-a", 1)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, store.len())
}

func TestStatusMasksLockedPrompts(t *testing.T) {
	ev, _, _ := setup(t, time.Minute)
	ctx := context.Background()

	st, err := ev.Status(ctx, testMission(1), "team-a")
	require.NoError(t, err)
	assert.False(t, st.Finished)
	assert.Zero(t, st.Penalty)
	require.Len(t, st.Prompts, 2)
	assert.Nil(t, st.Prompts[0].Text)
	assert.Nil(t, st.Prompts[1].Text)

	_, _, err = ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 1)
	require.NoError(t, err)

	st, err = ev.Status(ctx, testMission(1), "team-a")
	require.NoError(t, err)
	require.NotNil(t, st.Prompts[0].Text)
	assert.Equal(t, "Look at the plaque", *st.Prompts[0].Text)
	assert.Nil(t, st.Prompts[1].Text)

	other, err := ev.Status(ctx, testMission(1), "team-b")
	require.NoError(t, err)
	assert.Nil(t, other.Prompts[0].Text)
}

func TestStatusAnswerHistory(t *testing.T) {
	ev, _, clk := setup(t, time.Minute)
	ctx := context.Background()

	_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Gogol")
	require.NoError(t, err)
	_, _, err = ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 2)
	require.NoError(t, err)
	clk.Advance(time.Minute)
	_, err = ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.NoError(t, err)

	st, err := ev.Status(ctx, testMission(1), "team-a")
	require.NoError(t, err)
	require.Len(t, st.Answers, 2)
	assert.Equal(t, Answer{CreatedAt: begins.Add(time.Minute), Right: false, Text: "Gogol"}, st.Answers[0])
	assert.Equal(t, Answer{CreatedAt: begins.Add(2 * time.Minute), Right: true, Text: "Pushkin"}, st.Answers[1])
	assert.Equal(t, WrongAnswerPenalty+PromptPenalty+2*time.Minute, st.Penalty)
}

func TestEntryIsRight(t *testing.T) {
	assert.True(t, Entry{Kind: EventRightAnswer}.IsRight())
	assert.False(t, Entry{Kind: EventWrongAnswer}.IsRight())
	assert.False(t, Entry{Kind: EventGetPrompt}.IsRight())
}

func TestConcurrentIdenticalWrongAnswers(t *testing.T) {
	ev, store, _ := setup(t, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Gogol")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, store.count(EventWrongAnswer))
}

func TestStorageErrorsPropagate(t *testing.T) {
	ev := NewEvaluator(brokenLedger{}, clock.Fake(begins.Add(time.Minute)))
	ctx := context.Background()

	_, err := ev.SubmitAnswer(ctx, testCross(), testMission(1), "team-a", "Pushkin")
	require.ErrorIs(t, err, errStoreDown)

	_, _, err = ev.RequestPrompt(ctx, testCross(), testMission(1), "team-a", 1)
	require.ErrorIs(t, err, errStoreDown)

	_, err = ev.Status(ctx, testMission(1), "team-a")
	require.ErrorIs(t, err, errStoreDown)
}
