package pkg

// Version 工具链版本号
const Version = "0.1.0"
