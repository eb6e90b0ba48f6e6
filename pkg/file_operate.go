package pkg

import (
	"fmt"
	"io"
	"os"
)

// CheckFileExist 检查文件是否存在
func CheckFileExist(filePath string) (bool, error) {
	_, err := os.Lstat(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReadInput 读取输入文件，路径为空或为 "-" 时从 stdin 读取
func ReadInput(filePath string, stdin io.Reader) ([]byte, error) {
	if len(filePath) == 0 || filePath == "-" {
		return io.ReadAll(stdin)
	}
	exist, err := CheckFileExist(filePath)
	if err != nil {
		return nil, fmt.Errorf("check file exist: %w", err)
	}
	if !exist {
		return nil, fmt.Errorf("input file %s not exist", filePath)
	}
	return os.ReadFile(filePath)
}

// OpenOutput 打开输出文件，路径为空或为 "-" 时写到 stdout；返回的 close 函数必须调用
func OpenOutput(filePath string, stdout io.Writer) (io.Writer, func() error, error) {
	if len(filePath) == 0 || filePath == "-" {
		return stdout, func() error { return nil }, nil
	}
	f, err := os.Create(filePath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

// InputName 返回用于错误信息的输入名称
func InputName(filePath string) string {
	if len(filePath) == 0 || filePath == "-" {
		return "<stdin>"
	}
	return filePath
}
