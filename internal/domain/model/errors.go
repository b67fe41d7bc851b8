package model

import (
	"errors"
	"fmt"
)

var (
	// ErrStoreNotFound はデータセットのファイルが存在しないことを表します
	// ユースケースはこれをエラーではなく「何もしない」結果として扱います
	ErrStoreNotFound = errors.New("store not found")

	// ErrListingNotFound は指定URLの出品がどのデータセットにもないことを表します
	ErrListingNotFound = errors.New("listing not found")

	// ErrInvalidBucket は未知のデータセット名が指定されたことを表します
	ErrInvalidBucket = errors.New("invalid bucket")
)

// OracleResponseError は価格推定オラクルの応答が解釈できなかったことを表します
// 生の応答を保持し、呼び出し側で表示できるようにします（判定としては保存しません）
type OracleResponseError struct {
	Reason string
	Raw    string
}

func (e *OracleResponseError) Error() string {
	return fmt.Sprintf("malformed oracle response: %s", e.Reason)
}
