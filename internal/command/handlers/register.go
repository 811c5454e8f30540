// Package handlers регистрирует все обработчики команд приложения.
package handlers

import (
	"github.com/Kargones/dbakit/internal/command/handlers/copytabledatahandler"
	"github.com/Kargones/dbakit/internal/command/handlers/decryptobjecthandler"
	"github.com/Kargones/dbakit/internal/command/handlers/help"
	"github.com/Kargones/dbakit/internal/command/handlers/indexinfohandler"
	"github.com/Kargones/dbakit/internal/command/handlers/movedbfilehandler"
	"github.com/Kargones/dbakit/internal/command/handlers/newalerthandler"
	"github.com/Kargones/dbakit/internal/command/handlers/newjobstephandler"
	"github.com/Kargones/dbakit/internal/command/handlers/newloginhandler"
	"github.com/Kargones/dbakit/internal/command/handlers/publishdacpachandler"
	"github.com/Kargones/dbakit/internal/command/handlers/version"
)

// RegisterAll регистрирует все команды в глобальном реестре.
// Вызывается один раз при старте приложения; повторная регистрация
// одного имени приводит к panic.
func RegisterAll() {
	decryptobjecthandler.RegisterCmd()
	copytabledatahandler.RegisterCmd()
	movedbfilehandler.RegisterCmd()
	indexinfohandler.RegisterCmd()
	newloginhandler.RegisterCmd()
	newalerthandler.RegisterCmd()
	newjobstephandler.RegisterCmd()
	publishdacpachandler.RegisterCmd()
	help.RegisterCmd()
	version.RegisterCmd()
}
