package validator

import (
	"fmt"
	"strings"
)

// Формат SKU: ровно 11 символов вида AAA-NNN-XXX, где AAA — три буквы,
// NNN — три цифры, XXX — три буквы или цифры.
const skuLength = 11

// NormalizeSKU приводит SKU к каноническому виду: обрезает пробелы
// и переводит в верхний регистр. Нормализация выполняется перед валидацией
// при любой записи.
func NormalizeSKU(sku string) string {
	return strings.ToUpper(strings.TrimSpace(sku))
}

// ValidateSKU проверяет, что SKU соответствует формату AAA-NNN-XXX.
// На вход ожидается уже нормализованное значение.
func ValidateSKU(sku string) error {
	if len(sku) != skuLength {
		return fmt.Errorf("SKU должен содержать ровно %d символов, получено %d", skuLength, len(sku))
	}

	if sku[3] != '-' || sku[7] != '-' {
		return fmt.Errorf("SKU должен иметь формат AAA-NNN-XXX с дефисами на позициях 4 и 8")
	}

	for i := 0; i < 3; i++ {
		if !isLetter(sku[i]) {
			return fmt.Errorf("первые три символа SKU должны быть буквами")
		}
	}

	for i := 4; i < 7; i++ {
		if !isDigit(sku[i]) {
			return fmt.Errorf("символы 5-7 SKU должны быть цифрами")
		}
	}

	for i := 8; i < 11; i++ {
		if !isLetter(sku[i]) && !isDigit(sku[i]) {
			return fmt.Errorf("последние три символа SKU должны быть буквами или цифрами")
		}
	}

	return nil
}

func isLetter(b byte) bool {
	return b >= 'A' && b <= 'Z'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}
