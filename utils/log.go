package utils

import (
	"fmt"
	"log"
	"os"
	"path"
)

func SetupLogger(logFilePath string) error {
	if logFilePath == "" {
		return nil
	}

	logFile, err := os.OpenFile(path.Clean(logFilePath), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)

	if err != nil {
		return err
	}

	log.SetOutput(logFile)
	return nil
}

func ConsoleAndLogPrintf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	fmt.Println(message)
	log.Print(message)
}
