package model

import "fmt"

// Money денежная сумма в минимальных единицах (центах).
// Целочисленная арифметика исключает накопление ошибок округления.
type Money int64

// Dollars создает сумму из целого количества долларов.
func Dollars(n int64) Money {
	return Money(n * 100)
}

// Times умножает цену на количество участников.
func (m Money) Times(n int) Money {
	return m * Money(n)
}

func (m Money) String() string {
	sign := ""
	if m < 0 {
		sign = "-"
		m = -m
	}
	if m%100 == 0 {
		return fmt.Sprintf("%s$%d", sign, m/100)
	}
	return fmt.Sprintf("%s$%d.%02d", sign, m/100, m%100)
}
