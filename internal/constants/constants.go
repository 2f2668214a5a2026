// Package constants содержит константы, общие для команд и точки входа.
package constants

// Сообщения приложения.
const (
	// MsgAppExit — сообщение о завершении работы программы.
	MsgAppExit = "Завершение работы программы"
	// MsgErrProcessing — ключ лога для обработки ошибки.
	MsgErrProcessing = "Обработка ошибки"
)

// Имена команд.
const (
	// ActNRRestorePlan — построение плана восстановления.
	ActNRRestorePlan = "nr-restore-plan"
	// ActNRVersion — вывод версии.
	ActNRVersion = "nr-version"
	// ActHelp — список команд.
	ActHelp = "help"
)

// APIVersion — версия формата вывода команд.
const APIVersion = "v1"

// Коды завершения процесса.
const (
	ExitOK = 0
	// ExitConfig — конфигурация не загружена или некорректна, команда неизвестна.
	ExitConfig = 2
	// ExitPartial — план построен не для всех баз.
	ExitPartial = 5
	// ExitFailure — команда завершилась ошибкой.
	ExitFailure = 8
)
