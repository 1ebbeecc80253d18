package response

type APIError struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

type List[T any] struct {
	Data  []T `json:"data"`
	Count int `json:"count"`
}

func NewList[T any](data []T) List[T] {
	if data == nil {
		data = []T{}
	}
	return List[T]{Data: data, Count: len(data)}
}
