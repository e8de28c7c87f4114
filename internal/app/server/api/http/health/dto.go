package health

// Input пустой запрос проверки
type Input struct{}

type Output struct {
	Body Response
}

// Response состояние сервиса. Database заполняется, если подключена база.
type Response struct {
	Status   string `json:"status" example:"OK" doc:"Health status of the service"`
	Database string `json:"database,omitempty" example:"OK"`
}
