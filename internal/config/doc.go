// Package config загружает конфигурацию сервера.
//
// Источники, по возрастанию приоритета:
//   - значения по умолчанию (Default)
//   - JSON-файл (--config или ./config.json, если есть)
//   - переменные окружения (в том числе из .env)
//   - флаги командной строки
//
// Итоговая конфигурация проверяется Validate до запуска воркеров.
package config
