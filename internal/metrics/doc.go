/*
包 metrics 提供基于 Prometheus 的全链路指标采集能力，覆盖
HTTP、provider-port、branch 分类与数据库四大维度。

# 概述

本包通过 Collector 统一注册和记录 Prometheus 指标，使用 promauto
自动注册机制，避免手动管理 Registry。所有指标按 namespace 隔离，
支持多维度 label 分组，便于 Grafana 等工具进行可视化与告警。

# 核心类型

  - Collector：指标收集器，持有 Counter、Histogram、Gauge 等
    Prometheus 向量指标，按业务域分组管理。

# 主要能力

  - HTTP 指标：请求总数、请求耗时、请求/响应体大小，
    按 method/path/status 分组，状态码归类为 2xx/3xx/4xx/5xx。
  - Provider 指标：MemoryProvider/RerankPort/LLMPort 调用总数、
    耗时与候选命中数，按 port/provider 分组。
  - Branch 指标：RecallOrchestrator 结果的分类计数与置信度分布，
    按 mode/action 分组。
  - 数据库指标：活跃/空闲连接数 Gauge、查询耗时 Histogram，
    按 database/operation 分组，供 ingestreport 的连接池使用。
*/
package metrics
