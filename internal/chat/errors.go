package chat

import "errors"

// ErrHistoryLoad оборачивает любую ошибку загрузки истории. Ошибка
// восстановимая: повторный вызов LoadHistory делает новую попытку.
var ErrHistoryLoad = errors.New("history load failed")
