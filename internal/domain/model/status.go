package model

import "strings"

// State は出品のライフサイクル状態を表します
type State int32

const (
	StateUnknown  State = 0
	StateActive   State = 1 // 出品中（カウントダウン表示あり）
	StateSold     State = 2 // 落札済み（価格と入札履歴あり）
	StateReferred State = 3 // 流札・取り下げ（カウントダウンも落札情報もない）
	StateCanceled State = 4 // キャンセル。振り分け上は Referred と同じ扱い
	StateClosed   State = 5 // 終了。振り分け上は Referred と同じ扱い
)

var stateLabels = map[State]string{
	StateUnknown:  "Unknown",
	StateActive:   "Active",
	StateSold:     "Sold",
	StateReferred: "Referred",
	StateCanceled: "Canceled",
	StateClosed:   "Closed",
}

// String はCSVに保存するラベルを返します
func (s State) String() string {
	if label, ok := stateLabels[s]; ok {
		return label
	}
	return stateLabels[StateUnknown]
}

// ParseState は保存済みのラベルを State に変換します
// 大文字小文字と前後の空白は無視し、未知の値は StateUnknown になります
func ParseState(s string) State {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "active":
		return StateActive
	case "sold":
		return StateSold
	case "referred":
		return StateReferred
	case "canceled", "cancelled":
		return StateCanceled
	case "closed":
		return StateClosed
	default:
		return StateUnknown
	}
}

// Bucket は状態ごとの振り分け先データセットです
type Bucket string

const (
	BucketNone     Bucket = ""
	BucketAll      Bucket = "all" // 振り分け前の正規データセット
	BucketActive   Bucket = "active"
	BucketSold     Bucket = "sold"
	BucketReferred Bucket = "referred"
)

// Bucket は状態に対応する振り分け先を返します
// Unknown はどこにも振り分けず BucketNone を返します
func (s State) Bucket() Bucket {
	switch s {
	case StateActive:
		return BucketActive
	case StateSold:
		return BucketSold
	case StateReferred, StateCanceled, StateClosed:
		return BucketReferred
	default:
		return BucketNone
	}
}

// ParseBucket は外部から渡されたデータセット名を検証します
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(s))); b {
	case BucketAll, BucketActive, BucketSold, BucketReferred:
		return b, nil
	case BucketNone:
		return BucketAll, nil
	default:
		return BucketNone, ErrInvalidBucket
	}
}
