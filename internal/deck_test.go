package internal_test

import (
	"math/rand/v2"
	"sort"
	"testing"

	"github.com/koopa0/system-design/14-card-duel/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestNewDeckFactory 測試牌組設定驗證
func TestNewDeckFactory(t *testing.T) {
	tests := []struct {
		name    string
		cards   []string
		winning string
		wantErr error
	}{
		{
			name:    "valid deck",
			cards:   testCards,
			winning: testWinning,
		},
		{
			name:    "default deck",
			cards:   internal.DefaultCards,
			winning: internal.DefaultWinningCard,
		},
		{
			name:    "empty deck",
			cards:   nil,
			winning: testWinning,
			wantErr: internal.ErrEmptyDeck,
		},
		{
			name:    "winning card missing",
			cards:   []string{"a", "b"},
			winning: testWinning,
			wantErr: internal.ErrWinningCardCount,
		},
		{
			name:    "winning card duplicated",
			cards:   []string{"a", testWinning, testWinning},
			winning: testWinning,
			wantErr: internal.ErrDuplicateCard,
		},
		{
			name:    "duplicate regular card",
			cards:   []string{"a", "a", testWinning},
			winning: testWinning,
			wantErr: internal.ErrDuplicateCard,
		},
		{
			name:    "empty card id",
			cards:   []string{"", testWinning},
			winning: testWinning,
			wantErr: internal.ErrEmptyCardIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			factory, err := internal.NewDeckFactory(tt.cards, tt.winning, nil)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, factory)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.winning, factory.WinningCard())
		})
	}
}

// TestDeckFactory_Integrity 牌組恰好包含所有設定的卡牌
func TestDeckFactory_Integrity(t *testing.T) {
	factory, err := internal.NewDeckFactory(internal.DefaultCards, internal.DefaultWinningCard, rand.New(rand.NewPCG(7, 11)))
	require.NoError(t, err)

	want := append([]string(nil), internal.DefaultCards...)
	sort.Strings(want)

	for i := 0; i < 50; i++ {
		deck := factory.Build()
		got := deck.Cards()
		sort.Strings(got)
		require.Equal(t, want, got)

		winners := 0
		for _, c := range deck.Cards() {
			if c == internal.DefaultWinningCard {
				winners++
			}
		}
		assert.Equal(t, 1, winners)
	}
}

// TestDeckFactory_IndependentDecks 每次 Build 都是獨立實例
func TestDeckFactory_IndependentDecks(t *testing.T) {
	factory, err := internal.NewDeckFactory(testCards, testWinning, nil)
	require.NoError(t, err)

	a := factory.Build()
	b := factory.Build()

	_, ok := a.Draw()
	require.True(t, ok)

	assert.Equal(t, len(testCards)-1, a.Len())
	assert.Equal(t, len(testCards), b.Len())
}

// TestDeckFactory_DeterministicShuffler 注入固定隨機源可重現抽牌順序
func TestDeckFactory_DeterministicShuffler(t *testing.T) {
	build := func() []string {
		factory, err := internal.NewDeckFactory(internal.DefaultCards, internal.DefaultWinningCard, rand.New(rand.NewPCG(1, 2)))
		require.NoError(t, err)
		return factory.Build().Cards()
	}

	assert.Equal(t, build(), build())

	factory, err := internal.NewDeckFactory(testCards, testWinning, identityShuffler{})
	require.NoError(t, err)
	deck := factory.Build()

	var order []string
	for {
		card, ok := deck.Draw()
		if !ok {
			break
		}
		order = append(order, card)
	}
	assert.Equal(t, []string{"c3", testWinning, "c2", "c1"}, order)
}

// TestDeck_Draw 從尾端抽牌，每次減少一張
func TestDeck_Draw(t *testing.T) {
	deck := internal.NewDeck([]string{"a", "b"})

	card, ok := deck.Draw()
	require.True(t, ok)
	assert.Equal(t, "b", card)
	assert.Equal(t, 1, deck.Len())

	card, ok = deck.Draw()
	require.True(t, ok)
	assert.Equal(t, "a", card)
	assert.Equal(t, 0, deck.Len())

	_, ok = deck.Draw()
	assert.False(t, ok, "empty deck must not yield a card")
	assert.Equal(t, 0, deck.Len())
}

// TestDeck_CopiesInput NewDeck 不共用呼叫端的切片
func TestDeck_CopiesInput(t *testing.T) {
	cards := []string{"a", "b"}
	deck := internal.NewDeck(cards)
	cards[1] = "x"

	card, _ := deck.Draw()
	assert.Equal(t, "b", card)
}
