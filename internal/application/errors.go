package application

import "errors"

var ErrPhotoStorageUnavailable = errors.New("写真の保存先が設定されていません")
