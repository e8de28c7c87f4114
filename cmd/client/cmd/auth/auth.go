package auth

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

// AuthCmd - родительская команда для всех операций с авторизацей пользователя
var AuthCmd = &cobra.Command{
	Use:   "auth",
	Short: "Управление пользователем",
	Long:  `Регистрация, вход и выход из аккаунта.`,
}

const minPasswordLen = 8

// readLogin читает логин из флага или запрашивает его
func readLogin(in *bufio.Reader, out io.Writer, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	fmt.Fprint(out, "Логин: ")
	line, err := in.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("ошибка чтения логина: %w", err)
	}
	login := strings.TrimSpace(line)
	if login == "" {
		return "", fmt.Errorf("логин не может быть пустым")
	}
	return login, nil
}

// readPassword читает пароль без эха, если stdin - терминал
func readPassword(in *bufio.Reader, out io.Writer, prompt string) (string, error) {
	fmt.Fprint(out, prompt)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := in.ReadString('\n')
		if err != nil && line == "" {
			return "", fmt.Errorf("ошибка чтения пароля: %w", err)
		}
		return strings.TrimSpace(line), nil
	}

	password, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("ошибка чтения пароля: %w", err)
	}
	return string(password), nil
}
