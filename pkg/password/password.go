package password

import "golang.org/x/crypto/bcrypt"

// Hash возвращает bcrypt-хеш пароля с заданной стоимостью.
// Стоимость вне допустимого диапазона заменяется на bcrypt.DefaultCost.
func Hash(plain string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}

	b, err := bcrypt.GenerateFromPassword([]byte(plain), cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify сравнивает хеш с паролем в постоянное время
func Verify(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// IsHash сообщает, похожа ли строка на bcrypt-хеш
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil
}
