package payme

import "encoding/json"

// Payme speaks a JSON-RPC 2.0 shaped protocol with business error codes and
// localized message objects. Responses are always HTTP 200; logical failure
// is carried in the error envelope.

// JSON-RPC level codes.
const (
	codeUnauthorized   = -32504
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInternalError  = -32603
)

// Merchant API business codes.
const (
	codeWrongAmount   = -31001
	codeTxNotFound    = -31003
	codeCannotPerform = -31008
	codeOrderNotFound = -31050
)

// Request is the inbound JSON-RPC envelope. The id is kept raw and echoed
// back untouched; the sandbox sends numbers, some clients send strings.
type Request struct {
	Method string          `json:"method"`
	Params *Params         `json:"params"`
	ID     json.RawMessage `json:"id"`
}

type Params struct {
	// ID is the gateway's own transaction id, not the order id.
	ID      string  `json:"id"`
	Time    int64   `json:"time"`
	Amount  int64   `json:"amount"`
	Reason  *int    `json:"reason"`
	Account Account `json:"account"`
}

type Account struct {
	OrderID string `json:"order_id"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int     `json:"code"`
	Message Message `json:"message"`
}

// Message is the localized error text Payme requires instead of a bare
// string.
type Message struct {
	UZ string `json:"uz,omitempty"`
	RU string `json:"ru,omitempty"`
	EN string `json:"en,omitempty"`
}

func okResponse(id json.RawMessage, result interface{}) response {
	return response{JSONRPC: "2.0", Result: result, ID: id}
}

func errResponse(id json.RawMessage, code int, msg Message) response {
	return response{JSONRPC: "2.0", Error: &rpcError{Code: code, Message: msg}, ID: id}
}

var (
	msgUnauthorized   = Message{UZ: "Ruxsat yo'q", RU: "Доступ запрещен", EN: "Unauthorized"}
	msgInvalidRequest = Message{UZ: "Noto'g'ri so'rov", RU: "Неверный запрос", EN: "Invalid request"}
	msgMethodNotFound = Message{UZ: "Metod topilmadi", RU: "Метод не найден", EN: "Method not found"}
	msgInternalError  = Message{UZ: "Server xatosi", RU: "Внутренняя ошибка сервера", EN: "Internal server error"}
	msgOrderNotFound  = Message{UZ: "Buyurtma topilmadi", RU: "Заказ не найден", EN: "Order not found"}
	msgWrongAmount    = Message{UZ: "Summalar mos emas", RU: "Неверная сумма", EN: "Incorrect amount"}
	msgAlreadyCreated = Message{UZ: "Allaqachon yaratilgan", RU: "Транзакция уже создана", EN: "Transaction already created"}
	msgTxNotFound     = Message{UZ: "Tranzaksiya topilmadi", RU: "Транзакция не найдена", EN: "Transaction not found"}
	msgCannotPerform  = Message{UZ: "Tranzaksiyani bajarib bo'lmaydi", RU: "Невозможно выполнить операцию", EN: "Cannot perform transaction"}
)
