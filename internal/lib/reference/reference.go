// Package reference кодирует и декодирует внешнюю ссылку платежа, которую
// сервис передаёт платёжному шлюзу при инициации оплаты и получает обратно
// в вебхуке.
//
// Формат: INV-{userId}-{purchaseType}-{productId}-{timestampMillis}.
// userId приходит от клиента и может содержать разделитель, поэтому он
// стоит первым, а разбор идёт с хвоста: timestamp, productId, purchaseType,
// всё остальное склеивается обратно в userId.
package reference

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	// Prefix — фиксированный первый сегмент ссылки.
	Prefix = "INV"
	// Delimiter — разделитель сегментов.
	Delimiter = "-"

	// минимальное число сегментов после префикса: userId, тип, продукт, время
	minSegments = 4
)

// ErrInvalidInput возвращается Encode, если поля не позволяют построить обратимую ссылку.
var ErrInvalidInput = errors.New("invalid reference input")

// Reference — разобранная ссылка платежа.
type Reference struct {
	UserID       string
	PurchaseType string
	ProductID    string
	CreatedAt    time.Time
}

// ParseError описывает ссылку, которую невозможно разобрать.
type ParseError struct {
	Ref    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("reference %q: %s", e.Ref, e.Reason)
}

// Encode строит ссылку. Тип покупки и идентификатор продукта не должны
// содержать разделитель, иначе Decode не сможет восстановить поля.
func Encode(userID, purchaseType, productID string, ts time.Time) (string, error) {
	const op = "reference.Encode"
	switch {
	case userID == "":
		return "", fmt.Errorf("%s: empty user id: %w", op, ErrInvalidInput)
	case purchaseType == "" || strings.Contains(purchaseType, Delimiter):
		return "", fmt.Errorf("%s: purchase type %q: %w", op, purchaseType, ErrInvalidInput)
	case productID == "" || strings.Contains(productID, Delimiter):
		return "", fmt.Errorf("%s: product id %q: %w", op, productID, ErrInvalidInput)
	}
	return strings.Join([]string{
		Prefix,
		userID,
		purchaseType,
		productID,
		strconv.FormatInt(ts.UnixMilli(), 10),
	}, Delimiter), nil
}

// String возвращает закодированную форму ссылки.
func (r Reference) String() string {
	s, err := Encode(r.UserID, r.PurchaseType, r.ProductID, r.CreatedAt)
	if err != nil {
		return ""
	}
	return s
}

// Decode разбирает ссылку с хвоста. Входная строка не изменяется.
func Decode(ref string) (Reference, error) {
	head, rest, ok := strings.Cut(ref, Delimiter)
	if !ok || head != Prefix {
		return Reference{}, &ParseError{Ref: ref, Reason: "missing " + Prefix + " prefix"}
	}

	segments := strings.Split(rest, Delimiter)
	n := len(segments)
	if n < minSegments {
		return Reference{}, &ParseError{Ref: ref, Reason: fmt.Sprintf("expected at least %d segments, got %d", minSegments, n)}
	}

	millis, err := strconv.ParseInt(segments[n-1], 10, 64)
	if err != nil {
		return Reference{}, &ParseError{Ref: ref, Reason: "timestamp is not an integer"}
	}
	// ссылка служит ключом идемпотентности: принимается только каноническая запись
	if strconv.FormatInt(millis, 10) != segments[n-1] {
		return Reference{}, &ParseError{Ref: ref, Reason: "timestamp is not in canonical form"}
	}
	productID := segments[n-2]
	purchaseType := segments[n-3]
	userID := strings.Join(segments[:n-3], Delimiter)

	switch {
	case productID == "":
		return Reference{}, &ParseError{Ref: ref, Reason: "empty product id"}
	case purchaseType == "":
		return Reference{}, &ParseError{Ref: ref, Reason: "empty purchase type"}
	case userID == "":
		return Reference{}, &ParseError{Ref: ref, Reason: "empty user id"}
	}

	return Reference{
		UserID:       userID,
		PurchaseType: purchaseType,
		ProductID:    productID,
		CreatedAt:    time.UnixMilli(millis),
	}, nil
}
