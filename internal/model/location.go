package model

// Location место проведения поездок со сводкой по каталогу.
type Location struct {
	Name        string `json:"name"`
	Experiences int    `json:"experiences"` // число поездок в этом месте
	SpotsLeft   int    `json:"spotsLeft"`   // сколько участников не хватает до подтверждения всех групп
}
