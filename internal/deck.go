package internal

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
)

// Card 卡牌識別碼（不透明字串）
type Card = string

// 牌組設定錯誤（啟動時即失敗，不會在執行期出現）
var (
	ErrEmptyDeck         = errors.New("牌組不能為空")
	ErrWinningCardCount  = errors.New("勝利卡必須恰好出現一次")
	ErrDuplicateCard     = errors.New("牌組內有重複卡牌")
	ErrEmptyCardIdentity = errors.New("卡牌識別碼不能為空")
)

// Shuffler 洗牌隨機源
//
// *rand.Rand（math/rand/v2）已實作此介面，測試可注入固定序列以斷言抽牌順序。
type Shuffler interface {
	Shuffle(n int, swap func(i, j int))
}

// globalShuffler 使用 math/rand/v2 的全域隨機源（goroutine 安全）
type globalShuffler struct{}

func (globalShuffler) Shuffle(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// Deck 牌組
//
// 從尾端抽牌（後進先出）。每次成功抽牌恰好減少一張。
// Deck 本身不加鎖，由所屬 Room 的鎖保護。
type Deck struct {
	cards []Card
}

// NewDeck 以給定順序建立牌組（最後一張最先被抽出）
func NewDeck(cards []Card) *Deck {
	return &Deck{cards: append([]Card(nil), cards...)}
}

// Draw 抽出最上面一張；牌組為空時回傳 false
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return "", false
	}
	last := len(d.cards) - 1
	card := d.cards[last]
	d.cards = d.cards[:last]
	return card, true
}

// Len 剩餘張數
func (d *Deck) Len() int {
	return len(d.cards)
}

// Cards 回傳剩餘卡牌的副本（索引 0 為最底）
func (d *Deck) Cards() []Card {
	return append([]Card(nil), d.cards...)
}

// DeckFactory 牌組工廠
//
// 每次 Build 都產生獨立的洗牌結果，不同房間之間不共享牌組實例。
type DeckFactory struct {
	cards    []Card
	winning  Card
	shuffler Shuffler
	mu       sync.Mutex // *rand.Rand 非併發安全，序列化 Shuffle 呼叫
}

// NewDeckFactory 驗證牌組設定並建立工廠
//
// shuffler 為 nil 時使用全域隨機源。
func NewDeckFactory(cards []Card, winning Card, shuffler Shuffler) (*DeckFactory, error) {
	if err := validateDeck(cards, winning); err != nil {
		return nil, err
	}
	if shuffler == nil {
		shuffler = globalShuffler{}
	}
	return &DeckFactory{
		cards:    append([]Card(nil), cards...),
		winning:  winning,
		shuffler: shuffler,
	}, nil
}

// validateDeck 檢查牌組設定
func validateDeck(cards []Card, winning Card) error {
	if len(cards) == 0 {
		return ErrEmptyDeck
	}

	seen := make(map[Card]struct{}, len(cards))
	winners := 0
	for _, c := range cards {
		if c == "" {
			return ErrEmptyCardIdentity
		}
		if _, dup := seen[c]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCard, c)
		}
		seen[c] = struct{}{}
		if c == winning {
			winners++
		}
	}

	if winners != 1 {
		return fmt.Errorf("%w: %q 出現 %d 次", ErrWinningCardCount, winning, winners)
	}
	return nil
}

// Build 產生一副新洗好的牌組
func (f *DeckFactory) Build() *Deck {
	cards := append([]Card(nil), f.cards...)

	f.mu.Lock()
	f.shuffler.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	f.mu.Unlock()

	return &Deck{cards: cards}
}

// WinningCard 勝利卡
func (f *DeckFactory) WinningCard() Card {
	return f.winning
}
